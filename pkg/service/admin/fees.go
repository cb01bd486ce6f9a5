package admin

import (
	"context"
	"fmt"

	"github.com/amirasaad/payconsole/pkg/domain"
	"github.com/amirasaad/payconsole/pkg/domain/fee"
	"github.com/amirasaad/payconsole/pkg/domain/wallet"
	"github.com/amirasaad/payconsole/pkg/eventbus"
	"github.com/amirasaad/payconsole/pkg/query"
	"github.com/amirasaad/payconsole/pkg/service"
	"github.com/amirasaad/payconsole/pkg/ui/confirm"
	"github.com/amirasaad/payconsole/pkg/ui/tabs"
)

// ErrActivationDeclined is returned when the operator declines an
// activation prompt. No request is sent in that case.
var ErrActivationDeclined = fmt.Errorf("%w: activation declined", domain.ErrCancelled)

// versions

func (s *Service) FeeVersions(ctx context.Context) ([]fee.Version, error) {
	return query.Fetch(ctx, s.deps.Cache, KeyFeeVersions, s.deps.Stale.Fees, func(ctx context.Context) ([]fee.Version, error) {
		versions, err := s.api.FeeVersions(ctx)
		if err != nil {
			return nil, err
		}
		if n := fee.ActiveVersionCount(versions); len(versions) > 0 && n != 1 {
			s.deps.Logger.Warn("backend returned an inconsistent fee version list", "active", n, "versions", len(versions))
		}
		return versions, nil
	})
}

// FeeVersion finds a version by id, along with the full list it came from.
func (s *Service) FeeVersion(ctx context.Context, id string) (fee.Version, []fee.Version, error) {
	versions, err := s.FeeVersions(ctx)
	if err != nil {
		return fee.Version{}, nil, err
	}
	for _, v := range versions {
		if v.ID == id {
			return v, versions, nil
		}
	}
	return fee.Version{}, versions, fmt.Errorf("fee version %s: %w", id, domain.ErrNotFound)
}

func (s *Service) CreateFeeVersion(ctx context.Context, in fee.CreateVersionInput) (fee.Version, error) {
	return service.Mutate(ctx, s.deps,
		service.Action{Name: "fee-version.create", Resource: "fee-version"},
		[]query.Key{KeyFeeVersions},
		func(ctx context.Context) (fee.Version, error) { return s.api.CreateFeeVersion(ctx, in) })
}

// VersionActivationPrompt explains that every other version in versions is
// deactivated.
func VersionActivationPrompt(v fee.Version, versions []fee.Version) confirm.Prompt {
	return confirm.Prompt{
		Title:        "Activate fee version",
		Message:      fee.VersionActivationMessage(v, versions),
		ConfirmLabel: "Activate",
	}
}

// ActivateFeeVersion asks c to confirm VersionActivationPrompt and then
// activates the version. Every version and rule query is invalidated since
// the backend deactivates the previous version.
func (s *Service) ActivateFeeVersion(ctx context.Context, id string, c confirm.Confirmer) (fee.Version, error) {
	v, versions, err := s.FeeVersion(ctx, id)
	if err != nil {
		return fee.Version{}, err
	}
	action := service.Action{Name: "fee-version.activate", Resource: "fee-version", ResourceID: id}
	ok, err := c.Confirm(ctx, VersionActivationPrompt(v, versions))
	if err != nil {
		return fee.Version{}, err
	}
	if !ok {
		s.deps.Audit(ctx, action, eventbus.OutcomeDeclined, "")
		return fee.Version{}, ErrActivationDeclined
	}
	return service.Mutate(ctx, s.deps, action,
		[]query.Key{KeyFeeVersions, KeyFeeRules},
		func(ctx context.Context) (fee.Version, error) { return s.api.ActivateFeeVersion(ctx, id) })
}

// rules

func (s *Service) FeeRules(ctx context.Context, f fee.RuleFilter) ([]fee.Rule, error) {
	return query.Fetch(ctx, s.deps.Cache, feeRulesKey(f), s.deps.Stale.Fees,
		func(ctx context.Context) ([]fee.Rule, error) { return s.api.FeeRules(ctx, f) })
}

// FeeRule finds a rule by id in the unfiltered rule list.
func (s *Service) FeeRule(ctx context.Context, id string) (fee.Rule, error) {
	rules, err := s.FeeRules(ctx, fee.RuleFilter{})
	if err != nil {
		return fee.Rule{}, err
	}
	for _, r := range rules {
		if r.ID == id {
			return r, nil
		}
	}
	return fee.Rule{}, fmt.Errorf("fee rule %s: %w", id, domain.ErrNotFound)
}

// RulesView is the rule list with any tuple that has several ACTIVE rules.
type RulesView struct {
	Rules     []fee.Rule     `json:"rules"`
	Conflicts []fee.Conflict `json:"conflicts"`
}

// FeeRulesView loads rules and reports conflicts. Conflicts are only shown,
// never fixed here.
func (s *Service) FeeRulesView(ctx context.Context, f fee.RuleFilter) (RulesView, error) {
	rules, err := s.FeeRules(ctx, f)
	if err != nil {
		return RulesView{}, err
	}
	conflicts := fee.Conflicts(rules)
	if len(conflicts) > 0 {
		s.deps.Logger.Warn("backend returned several active rules for a tuple", "conflicts", len(conflicts))
	}
	return RulesView{Rules: rules, Conflicts: conflicts}, nil
}

func (s *Service) CreateFeeRule(ctx context.Context, in fee.CreateRuleInput) (fee.Rule, error) {
	if err := in.Validate(); err != nil {
		return fee.Rule{}, err
	}
	return service.Mutate(ctx, s.deps,
		service.Action{Name: "fee-rule.create", Resource: "fee-rule"},
		[]query.Key{KeyFeeRules},
		func(ctx context.Context) (fee.Rule, error) { return s.api.CreateFeeRule(ctx, in) })
}

func (s *Service) UpdateFeeRule(ctx context.Context, id string, in fee.UpdateRuleInput) (fee.Rule, error) {
	if err := in.Validate(); err != nil {
		return fee.Rule{}, err
	}
	return service.Mutate(ctx, s.deps,
		service.Action{Name: "fee-rule.update", Resource: "fee-rule", ResourceID: id},
		[]query.Key{KeyFeeRules},
		func(ctx context.Context) (fee.Rule, error) { return s.api.UpdateFeeRule(ctx, id, in) })
}

// ActivationPrompt is the confirmation shown before activating r. Its
// message names r's full (gateway, currency, transactionType) tuple.
func ActivationPrompt(r fee.Rule) confirm.Prompt {
	return confirm.Prompt{
		Title:        fee.ActivationTitle,
		Message:      fee.ActivationMessage(r),
		ConfirmLabel: "Activate",
	}
}

// ActivateFeeRule asks c to confirm ActivationPrompt(r) and only then sends
// the activation.
func (s *Service) ActivateFeeRule(ctx context.Context, r fee.Rule, c confirm.Confirmer) (fee.Rule, error) {
	ok, err := c.Confirm(ctx, ActivationPrompt(r))
	if err != nil {
		return fee.Rule{}, err
	}
	action := service.Action{Name: "fee-rule.activate", Resource: "fee-rule", ResourceID: r.ID}
	if !ok {
		s.deps.Audit(ctx, action, eventbus.OutcomeDeclined, r.Tuple().String())
		return fee.Rule{}, ErrActivationDeclined
	}
	return service.Mutate(ctx, s.deps, action,
		[]query.Key{KeyFeeRules},
		func(ctx context.Context) (fee.Rule, error) { return s.api.ActivateFeeRule(ctx, r.ID) })
}

// ActivateFeeRuleByID looks the rule up and then behaves like ActivateFeeRule.
func (s *Service) ActivateFeeRuleByID(ctx context.Context, id string, c confirm.Confirmer) (fee.Rule, error) {
	r, err := s.FeeRule(ctx, id)
	if err != nil {
		return fee.Rule{}, err
	}
	return s.ActivateFeeRule(ctx, r, c)
}

func (s *Service) DeactivateFeeRule(ctx context.Context, id string) (fee.Rule, error) {
	return service.Mutate(ctx, s.deps,
		service.Action{Name: "fee-rule.deactivate", Resource: "fee-rule", ResourceID: id},
		[]query.Key{KeyFeeRules},
		func(ctx context.Context) (fee.Rule, error) { return s.api.DeactivateFeeRule(ctx, id) })
}

// tiers

func (s *Service) FeeTiers(ctx context.Context, ruleID string) ([]fee.Tier, error) {
	return query.Fetch(ctx, s.deps.Cache, feeTiersKey(ruleID), s.deps.Stale.Fees,
		func(ctx context.Context) ([]fee.Tier, error) { return s.api.FeeTiers(ctx, ruleID) })
}

// CreateFeeTier adds a tier to a TIERED rule after checking it does not
// overlap the rule's existing tiers.
func (s *Service) CreateFeeTier(ctx context.Context, ruleID string, in fee.TierInput) (fee.Tier, error) {
	if err := s.checkTier(ctx, ruleID, in, ""); err != nil {
		return fee.Tier{}, err
	}
	return service.Mutate(ctx, s.deps,
		service.Action{Name: "fee-tier.create", Resource: "fee-tier", ResourceID: ruleID},
		[]query.Key{feeTiersKey(ruleID), KeyFeeRules.Append("list")},
		func(ctx context.Context) (fee.Tier, error) { return s.api.CreateFeeTier(ctx, ruleID, in) })
}

func (s *Service) UpdateFeeTier(ctx context.Context, ruleID, tierID string, in fee.TierInput) (fee.Tier, error) {
	if err := s.checkTier(ctx, ruleID, in, tierID); err != nil {
		return fee.Tier{}, err
	}
	return service.Mutate(ctx, s.deps,
		service.Action{Name: "fee-tier.update", Resource: "fee-tier", ResourceID: tierID},
		[]query.Key{feeTiersKey(ruleID), KeyFeeRules.Append("list")},
		func(ctx context.Context) (fee.Tier, error) { return s.api.UpdateFeeTier(ctx, tierID, in) })
}

func (s *Service) checkTier(ctx context.Context, ruleID string, in fee.TierInput, replacing string) error {
	rule, err := s.FeeRule(ctx, ruleID)
	if err != nil {
		return err
	}
	existing, err := s.FeeTiers(ctx, ruleID)
	if err != nil {
		return err
	}
	return fee.ValidateTierFor(rule, existing, in, replacing)
}

// overrides

func (s *Service) Overrides(ctx context.Context, f fee.OverrideFilter) ([]fee.Override, error) {
	return query.Fetch(ctx, s.deps.Cache, overridesKey(f), s.deps.Stale.Fees,
		func(ctx context.Context) ([]fee.Override, error) { return s.api.Overrides(ctx, f) })
}

func (s *Service) CreateOverride(ctx context.Context, in fee.CreateOverrideInput) (fee.Override, error) {
	if err := in.Validate(); err != nil {
		return fee.Override{}, err
	}
	return service.Mutate(ctx, s.deps,
		service.Action{Name: "fee-override.create", Resource: "fee-override", ResourceID: in.MerchantID},
		[]query.Key{KeyOverrides},
		func(ctx context.Context) (fee.Override, error) { return s.api.CreateOverride(ctx, in) })
}

func (s *Service) UpdateOverride(ctx context.Context, id string, in fee.UpdateOverrideInput) (fee.Override, error) {
	if err := in.Validate(); err != nil {
		return fee.Override{}, err
	}
	return service.Mutate(ctx, s.deps,
		service.Action{Name: "fee-override.update", Resource: "fee-override", ResourceID: id},
		[]query.Key{KeyOverrides},
		func(ctx context.Context) (fee.Override, error) { return s.api.UpdateOverride(ctx, id, in) })
}

func (s *Service) DeactivateOverride(ctx context.Context, id string) (fee.Override, error) {
	return service.Mutate(ctx, s.deps,
		service.Action{Name: "fee-override.deactivate", Resource: "fee-override", ResourceID: id},
		[]query.Key{KeyOverrides},
		func(ctx context.Context) (fee.Override, error) { return s.api.DeactivateOverride(ctx, id) })
}

// wallet fee settings

func (s *Service) WalletFeeSettings(ctx context.Context) (wallet.FeeSettings, error) {
	return query.Fetch(ctx, s.deps.Cache, KeyWalletFeeSettings, s.deps.Stale.Fees, s.api.WalletFeeSettings)
}

func (s *Service) UpdateWalletFeeSettings(ctx context.Context, in wallet.FeeSettingsUpdate) (wallet.FeeSettings, error) {
	if err := in.Validate(); err != nil {
		return wallet.FeeSettings{}, err
	}
	return service.Mutate(ctx, s.deps,
		service.Action{Name: "wallet-fee-settings.update", Resource: "wallet-fee-settings"},
		[]query.Key{KeyWalletFeeSettings},
		func(ctx context.Context) (wallet.FeeSettings, error) { return s.api.UpdateWalletFeeSettings(ctx, in) })
}

// Fee management tabs.
const (
	TabVersions       = "versions"
	TabRules          = "rules"
	TabOverrides      = "overrides"
	TabWalletSettings = "wallet-settings"
)

// FeePageOptions narrows what the rules and overrides tabs show.
type FeePageOptions struct {
	Rules     fee.RuleFilter
	Overrides fee.OverrideFilter
}

// FeePage builds the fee management screen. Creating it fetches nothing;
// each Switch loads only the selected tab.
func (s *Service) FeePage(opts FeePageOptions) *tabs.Tabs {
	t, err := tabs.New(map[string]tabs.Loader{
		TabVersions: func(ctx context.Context) (any, error) { return s.FeeVersions(ctx) },
		TabRules: func(ctx context.Context) (any, error) {
			return s.FeeRulesView(ctx, opts.Rules)
		},
		TabOverrides: func(ctx context.Context) (any, error) { return s.Overrides(ctx, opts.Overrides) },
		TabWalletSettings: func(ctx context.Context) (any, error) {
			return s.WalletFeeSettings(ctx)
		},
	}, TabVersions, TabRules, TabOverrides, TabWalletSettings)
	if err != nil {
		// the tab set is static; this cannot fail
		panic(err)
	}
	return t
}
