package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// MembershipPolicy is the tunable admission policy. The cash price band and
// the accepted currency list have changed over the product's life, so they
// live in config rather than code.
type MembershipPolicy struct {
	// MinAmount and MaxAmount bound a valid cash payment, in minor units.
	MinAmount int64 `mapstructure:"minAmount"`
	MaxAmount int64 `mapstructure:"maxAmount"`
	// Currencies accepted for cash payments (ISO 4217).
	Currencies []string `mapstructure:"currencies"`
	// LookbackDays is how long a cash payment grants coverage.
	LookbackDays int `mapstructure:"lookbackDays"`
	// RenewalHorizonDays classifies members as "Expiring Soon".
	RenewalHorizonDays int `mapstructure:"renewalHorizonDays"`
}

func DefaultMembershipPolicy() MembershipPolicy {
	return MembershipPolicy{
		MinAmount:          2500,
		MaxAmount:          3100,
		Currencies:         []string{"GBP", "USD"},
		LookbackDays:       30,
		RenewalHorizonDays: 5,
	}
}

func (p MembershipPolicy) Lookback() time.Duration {
	return time.Duration(p.LookbackDays) * 24 * time.Hour
}

func (p MembershipPolicy) AcceptsCurrency(currency string) bool {
	for _, c := range p.Currencies {
		if strings.EqualFold(c, currency) {
			return true
		}
	}
	return false
}

func (p MembershipPolicy) AmountInBand(amount int64) bool {
	return amount >= p.MinAmount && amount <= p.MaxAmount
}

type MembershipPolicyHolder struct {
	current atomic.Value // holds MembershipPolicy
}

func NewMembershipPolicyHolder() (*MembershipPolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("membership")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/gymgate/config") // Volume-mounted config
	v.AddConfigPath("/etc/gymgate")            // System config
	v.AddConfigPath(".")                       // Current directory (dev mode)

	v.SetEnvPrefix("GYMGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultMembershipPolicy()
		v.SetDefault("membership.minAmount", defaults.MinAmount)
		v.SetDefault("membership.maxAmount", defaults.MaxAmount)
		v.SetDefault("membership.currencies", defaults.Currencies)
		v.SetDefault("membership.lookbackDays", defaults.LookbackDays)
		v.SetDefault("membership.renewalHorizonDays", defaults.RenewalHorizonDays)
	}

	var policy MembershipPolicy
	if err := v.UnmarshalKey("membership", &policy); err != nil {
		return nil, err
	}
	if err := validateMembershipPolicy(policy); err != nil {
		return nil, err
	}

	holder := &MembershipPolicyHolder{}
	holder.current.Store(policy)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated MembershipPolicy
		if err := v.UnmarshalKey("membership", &updated); err != nil {
			log.Printf("[membership-policy] reload failed: %v", err)
			return
		}
		if err := validateMembershipPolicy(updated); err != nil {
			log.Printf("[membership-policy] invalid policy ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[membership-policy] reloaded from %s", e.Name)
	})

	return holder, nil
}

// StaticMembershipPolicyHolder wraps a fixed policy with no file watching,
// for tests and one-shot tools.
func StaticMembershipPolicyHolder(p MembershipPolicy) *MembershipPolicyHolder {
	holder := &MembershipPolicyHolder{}
	holder.current.Store(p)
	return holder
}

func (h *MembershipPolicyHolder) Get() MembershipPolicy {
	return h.current.Load().(MembershipPolicy)
}

func validateMembershipPolicy(p MembershipPolicy) error {
	if p.MinAmount <= 0 || p.MaxAmount < p.MinAmount {
		return errors.New("membership amount band is invalid")
	}
	if len(p.Currencies) == 0 {
		return errors.New("membership.currencies cannot be empty")
	}
	if p.LookbackDays <= 0 {
		return errors.New("membership.lookbackDays must be positive")
	}
	if p.RenewalHorizonDays < 0 {
		return errors.New("membership.renewalHorizonDays cannot be negative")
	}
	return nil
}
