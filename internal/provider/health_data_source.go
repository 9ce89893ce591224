package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/idaholab/terraform-provider-deeplynx/internal/deeplynx"
)

// Ensure provider defined types fully satisfy framework interfaces
var _ datasource.DataSource = &HealthDataSource{}

func NewHealthDataSource() datasource.DataSource {
	return &HealthDataSource{}
}

// HealthDataSource reports the Deep Lynx health endpoint.
type HealthDataSource struct {
	client *deeplynx.Client
}

type HealthDataSourceModel struct {
	ID      types.String `tfsdk:"id"`
	Status  types.String `tfsdk:"status"`
	Healthy types.Bool   `tfsdk:"healthy"`
}

func (d *HealthDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_health"
}

func (d *HealthDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		Description: "Reports the health of the Deep Lynx service",
		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				Computed:    true,
				Description: "The base URL of the checked service",
			},
			"status": schema.StringAttribute{
				Computed:    true,
				Description: "The body returned by the health endpoint",
			},
			"healthy": schema.BoolAttribute{
				Computed:    true,
				Description: "Whether the service reported OK",
			},
		},
	}
}

func (d *HealthDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	// Prevent panic if the provider has not been configured.
	if req.ProviderData == nil {
		return
	}

	client, ok := req.ProviderData.(*deeplynx.Client)

	if !ok {
		resp.Diagnostics.AddError(
			"Unexpected Data Source Configure Type",
			fmt.Sprintf("Expected *deeplynx.Client, got: %T. Please report this issue to the provider developers.", req.ProviderData),
		)

		return
	}

	d.client = client
}

func (d *HealthDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data HealthDataSourceModel

	status, err := d.client.Health(ctx)
	if err != nil {
		resp.Diagnostics.AddError("Unable to reach Deep Lynx", err.Error())
		return
	}

	data.ID = types.StringValue(d.client.Configuration().BasePath)
	data.Status = types.StringValue(status)
	data.Healthy = types.BoolValue(deeplynx.IsHealthy(status))

	// Set state
	diags := resp.State.Set(ctx, &data)
	resp.Diagnostics.Append(diags...)
}
