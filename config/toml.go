package config

import (
	"errors"
	"net/url"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/smartcontractkit/chainlink-common/pkg/config"

	"github.com/Mosas2000/BitHodl/network"
	"github.com/Mosas2000/BitHodl/txflow"
)

// Application defaults.
var defaultConfigSet = configSet{
	// retry budget and first backoff for failed submissions
	MaxRetries:     txflow.DefaultMaxRetries,
	RetryBaseDelay: txflow.DefaultRetryBaseDelay,
	// polling for transaction confirmation
	ConfirmPollPeriod: txflow.DefaultConfirmPollPeriod,
	ConfirmTimeout:    txflow.DefaultConfirmTimeout,
	RequestTimeout:    txflow.DefaultRequestTimeout,
	GraceDelay:        txflow.DefaultGraceDelay,
	// back-to-back poll failures tolerated before giving up
	MaxConsecutiveErrors: txflow.DefaultMaxConsecutiveErrors,
	// wallet and chain connectivity polling
	WalletPollPeriod: 5 * time.Second,
	StatusPollPeriod: 30 * time.Second,
	ProbeTimeout:     10 * time.Second,
	// retained notifications
	ToastCapacity: 100,
	// Prometheus endpoint
	MetricsAddress: ":9100",
}

type configSet struct {
	MaxRetries           int64
	RetryBaseDelay       time.Duration
	ConfirmPollPeriod    time.Duration
	ConfirmTimeout       time.Duration
	RequestTimeout       time.Duration
	GraceDelay           time.Duration
	MaxConsecutiveErrors int64
	WalletPollPeriod     time.Duration
	StatusPollPeriod     time.Duration
	ProbeTimeout         time.Duration
	ToastCapacity        uint64
	MetricsAddress       string
}

type EngineConfig struct {
	MaxRetries           *int64
	RetryBaseDelay       *config.Duration
	ConfirmPollPeriod    *config.Duration
	ConfirmTimeout       *config.Duration
	RequestTimeout       *config.Duration
	GraceDelay           *config.Duration
	MaxConsecutiveErrors *int64
	WalletPollPeriod     *config.Duration
	StatusPollPeriod     *config.Duration
	ProbeTimeout         *config.Duration
	ToastCapacity        *uint64
}

func (c *EngineConfig) SetDefaults() {
	if c.MaxRetries == nil {
		c.MaxRetries = &defaultConfigSet.MaxRetries
	}
	if c.RetryBaseDelay == nil {
		c.RetryBaseDelay = config.MustNewDuration(defaultConfigSet.RetryBaseDelay)
	}
	if c.ConfirmPollPeriod == nil {
		c.ConfirmPollPeriod = config.MustNewDuration(defaultConfigSet.ConfirmPollPeriod)
	}
	if c.ConfirmTimeout == nil {
		c.ConfirmTimeout = config.MustNewDuration(defaultConfigSet.ConfirmTimeout)
	}
	if c.RequestTimeout == nil {
		c.RequestTimeout = config.MustNewDuration(defaultConfigSet.RequestTimeout)
	}
	if c.GraceDelay == nil {
		c.GraceDelay = config.MustNewDuration(defaultConfigSet.GraceDelay)
	}
	if c.MaxConsecutiveErrors == nil {
		c.MaxConsecutiveErrors = &defaultConfigSet.MaxConsecutiveErrors
	}
	if c.WalletPollPeriod == nil {
		c.WalletPollPeriod = config.MustNewDuration(defaultConfigSet.WalletPollPeriod)
	}
	if c.StatusPollPeriod == nil {
		c.StatusPollPeriod = config.MustNewDuration(defaultConfigSet.StatusPollPeriod)
	}
	if c.ProbeTimeout == nil {
		c.ProbeTimeout = config.MustNewDuration(defaultConfigSet.ProbeTimeout)
	}
	if c.ToastCapacity == nil {
		c.ToastCapacity = &defaultConfigSet.ToastCapacity
	}
}

type TOMLConfig struct {
	// Network selects the chain environment, "mainnet" or "testnet".
	Network *string
	// Do not access directly, use [IsEnabled]
	Enabled *bool
	// NodeURL overrides the default Hiro API endpoint for the network.
	NodeURL *config.URL
	// Account is the principal whose balance and plans are tracked.
	Account *string
	// MetricsAddress is the listen address for the Prometheus endpoint.
	MetricsAddress *string
	EngineConfig
}

func (c *TOMLConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

func (c *TOMLConfig) SetFrom(f *TOMLConfig) {
	if f.Network != nil {
		c.Network = f.Network
	}
	if f.Enabled != nil {
		c.Enabled = f.Enabled
	}
	if f.NodeURL != nil {
		c.NodeURL = f.NodeURL
	}
	if f.Account != nil {
		c.Account = f.Account
	}
	if f.MetricsAddress != nil {
		c.MetricsAddress = f.MetricsAddress
	}
	setFromEngine(&c.EngineConfig, &f.EngineConfig)
}

func setFromEngine(c, f *EngineConfig) {
	if f.MaxRetries != nil {
		c.MaxRetries = f.MaxRetries
	}
	if f.RetryBaseDelay != nil {
		c.RetryBaseDelay = f.RetryBaseDelay
	}
	if f.ConfirmPollPeriod != nil {
		c.ConfirmPollPeriod = f.ConfirmPollPeriod
	}
	if f.ConfirmTimeout != nil {
		c.ConfirmTimeout = f.ConfirmTimeout
	}
	if f.RequestTimeout != nil {
		c.RequestTimeout = f.RequestTimeout
	}
	if f.GraceDelay != nil {
		c.GraceDelay = f.GraceDelay
	}
	if f.MaxConsecutiveErrors != nil {
		c.MaxConsecutiveErrors = f.MaxConsecutiveErrors
	}
	if f.WalletPollPeriod != nil {
		c.WalletPollPeriod = f.WalletPollPeriod
	}
	if f.StatusPollPeriod != nil {
		c.StatusPollPeriod = f.StatusPollPeriod
	}
	if f.ProbeTimeout != nil {
		c.ProbeTimeout = f.ProbeTimeout
	}
	if f.ToastCapacity != nil {
		c.ToastCapacity = f.ToastCapacity
	}
}

func (c *TOMLConfig) ValidateConfig() error {
	var err error
	if c.Network == nil {
		err = errors.Join(err, config.ErrMissing{Name: "Network", Msg: "required, mainnet or testnet"})
	} else if *c.Network == "" {
		err = errors.Join(err, config.ErrEmpty{Name: "Network", Msg: "required, mainnet or testnet"})
	} else if !network.IsValid(network.Network(*c.Network)) {
		err = errors.Join(err, config.ErrInvalid{Name: "Network", Value: *c.Network, Msg: "must be mainnet or testnet"})
	}

	if c.Account != nil && *c.Account == "" {
		err = errors.Join(err, config.ErrEmpty{Name: "Account", Msg: "must be a Stacks principal when set"})
	}
	if c.MetricsAddress != nil && *c.MetricsAddress == "" {
		err = errors.Join(err, config.ErrEmpty{Name: "MetricsAddress", Msg: "must be a listen address when set"})
	}

	if c.MaxRetries != nil && *c.MaxRetries < 0 {
		err = errors.Join(err, config.ErrInvalid{Name: "MaxRetries", Value: *c.MaxRetries, Msg: "must not be negative"})
	}
	if c.MaxConsecutiveErrors != nil && *c.MaxConsecutiveErrors < 1 {
		err = errors.Join(err, config.ErrInvalid{Name: "MaxConsecutiveErrors", Value: *c.MaxConsecutiveErrors, Msg: "must be at least 1"})
	}
	return err
}

func (c *TOMLConfig) SetDefaults() {
	if c.MetricsAddress == nil {
		c.MetricsAddress = &defaultConfigSet.MetricsAddress
	}
	c.EngineConfig.SetDefaults()
}

func (c *TOMLConfig) TOMLString() (string, error) {
	b, err := toml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ChainNetwork returns the configured network, defaulting to mainnet.
func (c *TOMLConfig) ChainNetwork() network.Network {
	if c.Network == nil {
		return network.Mainnet
	}
	return network.Normalize(*c.Network)
}

// APIURL is the chain API base, NodeURL when set, otherwise the
// network's default Hiro endpoint.
func (c *TOMLConfig) APIURL() string {
	if c.NodeURL != nil {
		return (*url.URL)(c.NodeURL).String()
	}
	return network.ConfigFor(c.ChainNetwork()).CoreAPIURL
}

func (c *TOMLConfig) WalletPollPeriodDuration() time.Duration {
	return c.EngineConfig.WalletPollPeriod.Duration()
}

func (c *TOMLConfig) StatusPollPeriodDuration() time.Duration {
	return c.EngineConfig.StatusPollPeriod.Duration()
}

func (c *TOMLConfig) ProbeTimeoutDuration() time.Duration {
	return c.EngineConfig.ProbeTimeout.Duration()
}

func (c *TOMLConfig) MetricsAddr() string {
	return *c.MetricsAddress
}

func (c *TOMLConfig) ToastCap() int {
	return int(*c.EngineConfig.ToastCapacity)
}

// FlowConfig maps the TOML engine settings onto the lifecycle engine
// configuration. Call after SetDefaults.
func (c *TOMLConfig) FlowConfig() txflow.Config {
	return txflow.Config{
		MaxRetries:           int(*c.MaxRetries),
		RetryBaseDelay:       c.RetryBaseDelay.Duration(),
		ConfirmPollPeriod:    c.ConfirmPollPeriod.Duration(),
		ConfirmTimeout:       c.ConfirmTimeout.Duration(),
		RequestTimeout:       c.RequestTimeout.Duration(),
		GraceDelay:           c.GraceDelay.Duration(),
		MaxConsecutiveErrors: int(*c.MaxConsecutiveErrors),
	}
}

func NewDefault() *TOMLConfig {
	cfg := &TOMLConfig{}
	cfg.SetDefaults()
	return cfg
}
