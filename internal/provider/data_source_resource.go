package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/boolplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"
	"github.com/idaholab/terraform-provider-deeplynx/internal/deeplynx"
	"github.com/idaholab/terraform-provider-deeplynx/internal/deeplynx/datasources"
)

// Ensure provider defined types fully satisfy framework interfaces
var _ resource.Resource = &DataSourceResource{}
var _ resource.ResourceWithImportState = &DataSourceResource{}
var _ resource.ResourceWithConfigure = &DataSourceResource{}

func NewDataSourceResource() resource.Resource {
	return &DataSourceResource{}
}

// DataSourceResource manages a Deep Lynx import data source. Deep Lynx has no
// update call for data sources, so every change replaces the resource.
type DataSourceResource struct {
	client *deeplynx.Client
}

// DataSourceResourceModel describes the resource data model.
type DataSourceResourceModel struct {
	ID          types.String `tfsdk:"id"`
	ContainerID types.String `tfsdk:"container_id"`
	Name        types.String `tfsdk:"name"`
	AdapterType types.String `tfsdk:"adapter_type"`
	Active      types.Bool   `tfsdk:"active"`
	Config      types.String `tfsdk:"config"`
	Status      types.String `tfsdk:"status"`
}

func (r *DataSourceResource) Metadata(ctx context.Context, req resource.MetadataRequest, resp *resource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_data_source"
}

func (r *DataSourceResource) Schema(ctx context.Context, req resource.SchemaRequest, resp *resource.SchemaResponse) {
	resp.Schema = schema.Schema{
		Description: "Creates and manages an import data source in a Deep Lynx container",
		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				Computed: true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
				Description: "The ID of the data source",
			},
			"container_id": schema.StringAttribute{
				Required:    true,
				Description: "The ID of the container the data source belongs to",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"name": schema.StringAttribute{
				Required:    true,
				Description: "The name of the data source",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"adapter_type": schema.StringAttribute{
				Required: true,
				Description: "The adapter type of the data source. Valid values are: " +
					strings.Join(datasources.AdapterTypes, ", "),
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
				Validators: []validator.String{
					stringvalidator.OneOf(datasources.AdapterTypes...),
				},
			},
			"active": schema.BoolAttribute{
				Optional:    true,
				Computed:    true,
				Description: "Whether the data source accepts imports. Defaults to true",
				PlanModifiers: []planmodifier.Bool{
					boolplanmodifier.UseStateForUnknown(),
					boolplanmodifier.RequiresReplace(),
				},
			},
			"config": schema.StringAttribute{
				Optional:    true,
				Description: "Adapter configuration as a JSON object",
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
				Validators: []validator.String{
					jsonObjectValidator{},
				},
			},
			"status": schema.StringAttribute{
				Computed:    true,
				Description: "The status reported by Deep Lynx",
			},
		},
	}
}

func (r *DataSourceResource) Configure(ctx context.Context, req resource.ConfigureRequest, resp *resource.ConfigureResponse) {
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

func (r *DataSourceResource) Create(ctx context.Context, req resource.CreateRequest, resp *resource.CreateResponse) {
	var data *DataSourceResourceModel

	// Read Terraform plan data into the model
	resp.Diagnostics.Append(req.Plan.Get(ctx, &data)...)

	if resp.Diagnostics.HasError() {
		return
	}

	config, err := decodeJSONObject(data.Config.ValueString())
	if err != nil {
		resp.Diagnostics.AddAttributeError(path.Root("config"), "Incorrect JSON object", err.Error())
		return
	}

	active := true
	if !data.Active.IsNull() && !data.Active.IsUnknown() {
		active = data.Active.ValueBool()
	}

	created, err := r.client.CreateDataSource(ctx, data.ContainerID.ValueString(), &datasources.CreateDataSourceRequest{
		Name:        data.Name.ValueString(),
		AdapterType: data.AdapterType.ValueString(),
		Active:      active,
		Config:      config,
	})
	if err != nil {
		resp.Diagnostics.AddError("Error creating data source", err.Error())
		return
	}

	if created.Value.ID == "" {
		resp.Diagnostics.AddError("Error creating data source", "Deep Lynx returned no data source id")
		return
	}

	data.ID = types.StringValue(created.Value.ID)
	data.Active = types.BoolValue(created.Value.Active)
	data.Status = types.StringValue(created.Value.Status)

	tflog.Trace(ctx, "created a data source", map[string]interface{}{
		"id":           created.Value.ID,
		"container_id": data.ContainerID.ValueString(),
	})

	// Save data into Terraform state
	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *DataSourceResource) Read(ctx context.Context, req resource.ReadRequest, resp *resource.ReadResponse) {
	var data *DataSourceResourceModel

	// Read Terraform prior state data into the model
	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)

	if resp.Diagnostics.HasError() {
		return
	}

	dataSource, err := r.client.RetrieveDataSource(ctx, data.ContainerID.ValueString(), data.ID.ValueString())
	if err != nil {
		if errors.Is(err, deeplynx.ErrorNotFound) {
			tflog.Warn(ctx, "Deep Lynx data source not found, removing from state", map[string]interface{}{
				"id": data.ID.ValueString(),
			})
			resp.State.RemoveResource(ctx)
			return
		}
		resp.Diagnostics.AddError("Error reading data source", err.Error())
		return
	}

	if dataSource.Archived {
		tflog.Warn(ctx, "Deep Lynx data source is archived, removing from state", map[string]interface{}{
			"id": data.ID.ValueString(),
		})
		resp.State.RemoveResource(ctx)
		return
	}

	// config is kept as written; the service may reorder or extend it.
	data.Name = types.StringValue(dataSource.Name)
	data.AdapterType = types.StringValue(dataSource.AdapterType)
	data.Active = types.BoolValue(dataSource.Active)
	data.Status = types.StringValue(dataSource.Status)

	// Save updated data into Terraform state
	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *DataSourceResource) Update(ctx context.Context, req resource.UpdateRequest, resp *resource.UpdateResponse) {
	var plan *DataSourceResourceModel

	resp.Diagnostics.Append(req.Plan.Get(ctx, &plan)...)

	if resp.Diagnostics.HasError() {
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &plan)...)
}

func (r *DataSourceResource) Delete(ctx context.Context, req resource.DeleteRequest, resp *resource.DeleteResponse) {
	var state *DataSourceResourceModel

	// Read Terraform prior state data into the model
	resp.Diagnostics.Append(req.State.Get(ctx, &state)...)

	if resp.Diagnostics.HasError() {
		return
	}

	_, err := r.client.ArchiveDataSource(ctx, state.ContainerID.ValueString(), state.ID.ValueString())
	if err != nil {
		if errors.Is(err, deeplynx.ErrorNotFound) {
			tflog.Warn(ctx, "Deep Lynx data source already archived", map[string]interface{}{
				"id": state.ID.ValueString(),
			})
			return
		}
		resp.Diagnostics.AddError("Error archiving data source", err.Error())
		return
	}
}

// ImportState accepts an id of the form <container_id>/<data_source_id>.
func (r *DataSourceResource) ImportState(ctx context.Context, req resource.ImportStateRequest, resp *resource.ImportStateResponse) {
	containerID, dataSourceID, ok := strings.Cut(req.ID, "/")
	if !ok || containerID == "" || dataSourceID == "" {
		resp.Diagnostics.AddError(
			"Unexpected Import Identifier",
			fmt.Sprintf("Expected import identifier with format: container_id/data_source_id. Got: %q", req.ID),
		)
		return
	}

	resp.Diagnostics.Append(resp.State.SetAttribute(ctx, path.Root("container_id"), containerID)...)
	resp.Diagnostics.Append(resp.State.SetAttribute(ctx, path.Root("id"), dataSourceID)...)
}
