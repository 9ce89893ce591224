package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/terraform-plugin-framework-timeouts/resource/timeouts"
	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"
	sdkresource "github.com/hashicorp/terraform-plugin-sdk/v2/helper/resource"
	"github.com/idaholab/terraform-provider-deeplynx/internal/deeplynx"
	"github.com/idaholab/terraform-provider-deeplynx/internal/deeplynx/datasources"
)

const defaultImportContentType = "application/json"

// Ensure provider defined types fully satisfy framework interfaces
var _ resource.Resource = &ManualImportResource{}
var _ resource.ResourceWithImportState = &ManualImportResource{}
var _ resource.ResourceWithConfigure = &ManualImportResource{}

func NewManualImportResource() resource.Resource {
	return &ManualImportResource{}
}

// ManualImportResource submits one payload to a data source.
type ManualImportResource struct {
	client *deeplynx.Client
}

// ManualImportResourceModel describes the resource data model.
type ManualImportResourceModel struct {
	ID                types.String   `tfsdk:"id"`
	ContainerID       types.String   `tfsdk:"container_id"`
	DataSourceID      types.String   `tfsdk:"data_source_id"`
	Payload           types.String   `tfsdk:"payload"`
	ContentType       types.String   `tfsdk:"content_type"`
	WaitForCompletion types.Bool     `tfsdk:"wait_for_completion"`
	Status            types.String   `tfsdk:"status"`
	StatusMessage     types.String   `tfsdk:"status_message"`
	Timeouts          timeouts.Value `tfsdk:"timeouts"`
}

func (r *ManualImportResource) Metadata(ctx context.Context, req resource.MetadataRequest, resp *resource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_manual_import"
}

func (r *ManualImportResource) Schema(ctx context.Context, req resource.SchemaRequest, resp *resource.SchemaResponse) {
	resp.Schema = schema.Schema{
		Description: "Submits a manual import to a Deep Lynx data source",
		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				Computed: true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
				Description: "The ID of the import",
			},
			"container_id": schema.StringAttribute{
				Required:    true,
				Description: "The ID of the container",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"data_source_id": schema.StringAttribute{
				Required:    true,
				Description: "The ID of the data source receiving the import",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"payload": schema.StringAttribute{
				Required:    true,
				Description: "The body of the import, sent as is",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"content_type": schema.StringAttribute{
				Optional:    true,
				Computed:    true,
				Description: "The content type of the payload. Defaults to application/json",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
					stringplanmodifier.RequiresReplace(),
				},
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"wait_for_completion": schema.BoolAttribute{
				Optional:    true,
				Description: "Whether to wait for the import to finish processing. Valid values are: true or false",
			},
			"status": schema.StringAttribute{
				Computed:    true,
				Description: "The status of the import",
			},
			"status_message": schema.StringAttribute{
				Computed:    true,
				Description: "The status message reported with the import status",
			},
		},
		Blocks: map[string]schema.Block{
			"timeouts": timeouts.Block(ctx, timeouts.Opts{
				Create: true,
			}),
		},
	}
}

func (r *ManualImportResource) Configure(ctx context.Context, req resource.ConfigureRequest, resp *resource.ConfigureResponse) {
	// Prevent panic if the provider has not been configured.
	if req.ProviderData == nil {
		return
	}

	client, ok := req.ProviderData.(*deeplynx.Client)

	if !ok {
		resp.Diagnostics.AddError(
			"Unexpected Resource Configure Type",
			fmt.Sprintf("Expected *deeplynx.Client, got: %T. Please report this issue to the provider developers.", req.ProviderData),
		)

		return
	}

	r.client = client
}

func (r *ManualImportResource) Create(ctx context.Context, req resource.CreateRequest, resp *resource.CreateResponse) {
	var data *ManualImportResourceModel

	// Read Terraform plan data into the model
	resp.Diagnostics.Append(req.Plan.Get(ctx, &data)...)

	if resp.Diagnostics.HasError() {
		return
	}

	contentType := data.ContentType.ValueString()
	if contentType == "" {
		contentType = defaultImportContentType
	}

	created, err := r.client.CreateManualImport(
		ctx,
		data.ContainerID.ValueString(),
		data.DataSourceID.ValueString(),
		[]byte(data.Payload.ValueString()),
		deeplynx.WithHeader("Content-Type", contentType),
	)
	if err != nil {
		resp.Diagnostics.AddError("Error creating manual import", err.Error())
		return
	}

	if created.Value.ID == "" {
		resp.Diagnostics.AddError("Error creating manual import", "Deep Lynx returned no import id")
		return
	}

	data.ID = types.StringValue(created.Value.ID)
	data.ContentType = types.StringValue(contentType)
	setImportStatus(data, &created.Value)

	tflog.Trace(ctx, "created a manual import", map[string]interface{}{
		"id":             created.Value.ID,
		"data_source_id": data.DataSourceID.ValueString(),
	})

	// Save data into Terraform state
	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	if !data.WaitForCompletion.ValueBool() {
		return
	}

	createTimeout, diags := data.Timeouts.Create(ctx, defaultCreateTimeout)
	resp.Diagnostics.Append(diags...)
	if resp.Diagnostics.HasError() {
		return
	}

	var finished *datasources.Import
	err = sdkresource.RetryContext(ctx, createTimeout, func() *sdkresource.RetryError {
		current, err := r.client.RetrieveImport(ctx, data.ContainerID.ValueString(), data.ID.ValueString())
		if err != nil {
			return sdkresource.NonRetryableError(fmt.Errorf("error retrieving import details: %v", err))
		}

		if !current.Finished() {
			return sdkresource.RetryableError(fmt.Errorf("expected import to be finished but was in state %s", current.Status))
		}

		finished = current
		return nil
	})
	if err != nil {
		resp.Diagnostics.AddError("Error creating manual import", fmt.Sprintf("Unable to wait for import, got error: %s", err))
		return
	}

	setImportStatus(data, finished)
	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)

	if finished.Status != datasources.ImportStatusCompleted {
		resp.Diagnostics.AddError(
			"Manual import did not complete",
			fmt.Sprintf("Import %s finished with status %s: %s", finished.ID, finished.Status, finished.StatusMessage),
		)
	}
}

func (r *ManualImportResource) Read(ctx context.Context, req resource.ReadRequest, resp *resource.ReadResponse) {
	var data *ManualImportResourceModel

	// Read Terraform prior state data into the model
	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)

	if resp.Diagnostics.HasError() {
		return
	}

	current, err := r.client.RetrieveImport(ctx, data.ContainerID.ValueString(), data.ID.ValueString())
	if err != nil {
		if errors.Is(err, deeplynx.ErrorNotFound) {
			tflog.Warn(ctx, "Deep Lynx import not found, removing from state", map[string]interface{}{
				"id": data.ID.ValueString(),
			})
			resp.State.RemoveResource(ctx)
			return
		}
		resp.Diagnostics.AddError("Error reading manual import", err.Error())
		return
	}

	if current.DataSourceID != "" {
		data.DataSourceID = types.StringValue(current.DataSourceID)
	}
	setImportStatus(data, current)

	// Save updated data into Terraform state
	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

// Update only sees changes to wait_for_completion and timeouts; everything
// else forces a new import.
func (r *ManualImportResource) Update(ctx context.Context, req resource.UpdateRequest, resp *resource.UpdateResponse) {
	var plan *ManualImportResourceModel
	var state *ManualImportResourceModel

	resp.Diagnostics.Append(req.Plan.Get(ctx, &plan)...)

	if resp.Diagnostics.HasError() {
		return
	}

	resp.Diagnostics.Append(req.State.Get(ctx, &state)...)

	if resp.Diagnostics.HasError() {
		return
	}

	plan.Status = state.Status
	plan.StatusMessage = state.StatusMessage

	resp.Diagnostics.Append(resp.State.Set(ctx, &plan)...)
}

func (r *ManualImportResource) Delete(ctx context.Context, req resource.DeleteRequest, resp *resource.DeleteResponse) {
	var state *ManualImportResourceModel

	// Read Terraform prior state data into the model
	resp.Diagnostics.Append(req.State.Get(ctx, &state)...)

	if resp.Diagnostics.HasError() {
		return
	}

	err := r.client.DeleteImport(ctx, state.ContainerID.ValueString(), state.ID.ValueString())
	if err != nil {
		if errors.Is(err, deeplynx.ErrorNotFound) {
			tflog.Warn(ctx, "Deep Lynx import already deleted", map[string]interface{}{
				"id": state.ID.ValueString(),
			})
			return
		}
		resp.Diagnostics.AddError("Error deleting manual import", err.Error())
		return
	}
}

// ImportState accepts an id of the form <container_id>/<import_id>.
func (r *ManualImportResource) ImportState(ctx context.Context, req resource.ImportStateRequest, resp *resource.ImportStateResponse) {
	containerID, importID, ok := strings.Cut(req.ID, "/")
	if !ok || containerID == "" || importID == "" {
		resp.Diagnostics.AddError(
			"Unexpected Import Identifier",
			fmt.Sprintf("Expected import identifier with format: container_id/import_id. Got: %q", req.ID),
		)
		return
	}

	resp.Diagnostics.Append(resp.State.SetAttribute(ctx, path.Root("container_id"), containerID)...)
	resp.Diagnostics.Append(resp.State.SetAttribute(ctx, path.Root("id"), importID)...)
}

func setImportStatus(data *ManualImportResourceModel, i *datasources.Import) {
	data.Status = types.StringValue(i.Status)
	data.StatusMessage = types.StringValue(i.StatusMessage)
}
