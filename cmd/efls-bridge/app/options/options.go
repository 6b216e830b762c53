package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/efls/internal/bridge"
	"github.com/autopeer-io/efls/pkg/app"
	"github.com/autopeer-io/efls/pkg/log"
	"github.com/autopeer-io/efls/pkg/options"
)

type BridgeOptions struct {
	MqttOptions      *options.MqttOptions      `json:"mqtt" mapstructure:"mqtt"`
	HttpOptions      *options.HttpOptions      `json:"http" mapstructure:"http"`
	GrpcOptions      *options.GrpcOptions      `json:"grpc" mapstructure:"grpc"`
	S3Options        *options.S3Options        `json:"s3" mapstructure:"s3"`
	ExchangeOptions  *options.ExchangeOptions  `json:"exchange" mapstructure:"exchange"`
	ReconcileOptions *options.ReconcileOptions `json:"reconcile" mapstructure:"reconcile"`
	Log              *log.Options              `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*BridgeOptions)(nil)

func NewBridgeOptions() *BridgeOptions {
	return &BridgeOptions{
		MqttOptions:      options.NewMqttOptions(),
		HttpOptions:      options.NewHttpOptions(),
		GrpcOptions:      options.NewGrpcOptions(),
		S3Options:        options.NewS3Options(),
		ExchangeOptions:  options.NewExchangeOptions(),
		ReconcileOptions: options.NewReconcileOptions(),
		Log:              log.NewOptions(),
	}
}

func (o *BridgeOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.GrpcOptions.AddFlags(fss.FlagSet("grpc"))
	o.S3Options.AddFlags(fss.FlagSet("s3"))
	o.ExchangeOptions.AddFlags(fss.FlagSet("exchange"))
	o.ReconcileOptions.AddFlags(fss.FlagSet("reconcile"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *BridgeOptions) Complete() error {
	return nil
}

// Validate checks every group. S3 settings only matter for the s3 backend.
func (o *BridgeOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.GrpcOptions.Validate()...)
	if o.ExchangeOptions.Backend == options.ExchangeBackendS3 {
		errs = append(errs, o.S3Options.Validate()...)
	}
	errs = append(errs, o.ExchangeOptions.Validate()...)
	errs = append(errs, o.ReconcileOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *BridgeOptions) Config() (*bridge.Config, error) {
	return &bridge.Config{
		MqttOptions:      o.MqttOptions,
		HttpOptions:      o.HttpOptions,
		GrpcOptions:      o.GrpcOptions,
		S3Options:        o.S3Options,
		ExchangeOptions:  o.ExchangeOptions,
		ReconcileOptions: o.ReconcileOptions,
	}, nil
}
