package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

var _ IOptions = (*ExchangeOptions)(nil)

const (
	ExchangeBackendFile = "file"
	ExchangeBackendS3   = "s3"
)

// ExchangeOptions selects and configures the channel shared with the EFLS decision process.
type ExchangeOptions struct {
	// Backend is either "file" or "s3".
	Backend string `json:"backend" mapstructure:"backend"`

	// InboundPath is the landing plan written by EFLS.
	InboundPath string `json:"inbound-path" mapstructure:"inbound-path"`

	// OutboundPath is the aircraft telemetry read by EFLS.
	OutboundPath string `json:"outbound-path" mapstructure:"outbound-path"`

	// Watch enables filesystem notifications on the inbound file.
	Watch bool `json:"watch" mapstructure:"watch"`

	// InboundKey and OutboundKey are the object names used by the s3 backend.
	InboundKey  string `json:"inbound-key" mapstructure:"inbound-key"`
	OutboundKey string `json:"outbound-key" mapstructure:"outbound-key"`
}

// NewExchangeOptions creates an ExchangeOptions object with default parameters.
func NewExchangeOptions() *ExchangeOptions {
	return &ExchangeOptions{
		Backend:      ExchangeBackendFile,
		InboundPath:  "/var/lib/efls/aircraftLink_waypoints",
		OutboundPath: "/var/lib/efls/aircraftLink_aircraft",
		Watch:        true,
		InboundKey:   "aircraftLink_waypoints",
		OutboundKey:  "aircraftLink_aircraft",
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *ExchangeOptions) Validate() []error {
	var errors []error

	switch o.Backend {
	case ExchangeBackendFile:
		if o.InboundPath == "" || o.OutboundPath == "" {
			errors = append(errors, fmt.Errorf("--exchange.inbound-path and --exchange.outbound-path are required for the file backend"))
		}
		if o.InboundPath != "" && o.InboundPath == o.OutboundPath {
			errors = append(errors, fmt.Errorf("inbound and outbound exchange paths must differ"))
		}
	case ExchangeBackendS3:
		if o.InboundKey == "" || o.OutboundKey == "" {
			errors = append(errors, fmt.Errorf("--exchange.inbound-key and --exchange.outbound-key are required for the s3 backend"))
		}
		if o.InboundKey != "" && o.InboundKey == o.OutboundKey {
			errors = append(errors, fmt.Errorf("inbound and outbound exchange keys must differ"))
		}
	default:
		errors = append(errors, fmt.Errorf("unknown exchange backend %q", o.Backend))
	}

	return errors
}

// AddFlags adds flags related to the exchange channel to the specified FlagSet.
func (o *ExchangeOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Backend, "exchange.backend", o.Backend, "Exchange channel backend ('file' or 's3').")
	fs.StringVar(&o.InboundPath, "exchange.inbound-path", o.InboundPath, "File the EFLS process writes landing plans to.")
	fs.StringVar(&o.OutboundPath, "exchange.outbound-path", o.OutboundPath, "File the bridge writes aircraft telemetry to.")
	fs.BoolVar(&o.Watch, "exchange.watch", o.Watch, "Watch the inbound file and evaluate new plans immediately.")
	fs.StringVar(&o.InboundKey, "exchange.inbound-key", o.InboundKey, "Object key of the landing plan (s3 backend).")
	fs.StringVar(&o.OutboundKey, "exchange.outbound-key", o.OutboundKey, "Object key of the aircraft telemetry (s3 backend).")
}
