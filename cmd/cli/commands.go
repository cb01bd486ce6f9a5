package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/amirasaad/payconsole/pkg/domain/fee"
	"github.com/amirasaad/payconsole/pkg/domain/merchant"
	"github.com/amirasaad/payconsole/pkg/domain/transaction"
	"github.com/amirasaad/payconsole/pkg/service/admin"
	"github.com/amirasaad/payconsole/pkg/service/wallet"
	"github.com/amirasaad/payconsole/pkg/ui/confirm"
	"github.com/amirasaad/payconsole/pkg/ui/listview"
	"github.com/amirasaad/payconsole/pkg/ui/notify"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// CLI runs one console command per invocation.
type CLI struct {
	Admin     *admin.Service
	Wallet    *wallet.Service
	Out       io.Writer
	Notifier  notify.Notifier
	Confirmer confirm.Confirmer
}

type command struct {
	args    string
	minArgs int
	run     func(c *CLI, ctx context.Context, args []string) error
	// failure is the toast text when the backend gave no message.
	failure string
}

var commands = map[string]command{
	"fee-versions":         {run: (*CLI).feeVersions, failure: "Failed to load fee versions"},
	"fee-version-activate": {args: "<versionId>", minArgs: 1, run: (*CLI).activateFeeVersion, failure: "Failed to activate fee version"},
	"fee-rules":            {run: (*CLI).feeRules, failure: "Failed to load fee rules"},
	"fee-rule-activate":    {args: "<ruleId>", minArgs: 1, run: (*CLI).activateFeeRule, failure: "Failed to activate fee rule"},
	"fee-rule-deactivate":  {args: "<ruleId>", minArgs: 1, run: (*CLI).deactivateFeeRule, failure: "Failed to deactivate fee rule"},
	"overrides":            {args: "<merchantId>", minArgs: 1, run: (*CLI).overrides, failure: "Failed to load fee overrides"},
	"transactions":         {args: "[search]", run: (*CLI).transactions, failure: "Failed to load transactions"},
	"kyb-approve":          {args: "<merchantId>", minArgs: 1, run: (*CLI).approveKYB, failure: "Failed to approve KYB"},
	"kyb-reject":           {args: "<merchantId> <reason>", minArgs: 2, run: (*CLI).rejectKYB, failure: "Failed to reject KYB"},
	"wallet":               {run: (*CLI).wallet, failure: "Failed to load wallet balance"},
}

func usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "Usage: payconsole <command> [arguments]")
	fmt.Fprintln(w, "Commands:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s %s\n", name, commands[name].args)
	}
}

// Run dispatches args[0] and returns the process exit code.
func (c *CLI) Run(ctx context.Context, args []string) int {
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintln(c.Out, "Unknown command:", args[0])
		usage(c.Out)
		return exitUsage
	}
	rest := args[1:]
	if len(rest) < cmd.minArgs {
		fmt.Fprintf(c.Out, "Usage: payconsole %s %s\n", args[0], cmd.args)
		return exitUsage
	}
	if err := cmd.run(c, ctx, rest); err != nil {
		c.Notifier.Notify(ctx, notify.FromError(err, cmd.failure))
		return exitFailure
	}
	return exitOK
}

func (c *CLI) success(ctx context.Context, format string, args ...any) {
	c.Notifier.Notify(ctx, notify.Success(fmt.Sprintf(format, args...)))
}

func (c *CLI) feeVersions(ctx context.Context, _ []string) error {
	versions, err := c.Admin.FeeVersions(ctx)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(versions))
	for _, v := range versions {
		active := ""
		if v.IsActive {
			active = "yes"
		}
		rows = append(rows, []string{v.ID, strconv.Itoa(v.Version), active, v.Description})
	}
	renderTable(c.Out, []string{"ID", "VERSION", "ACTIVE", "DESCRIPTION"}, rows)
	return nil
}

func (c *CLI) activateFeeVersion(ctx context.Context, args []string) error {
	v, err := c.Admin.ActivateFeeVersion(ctx, args[0], c.Confirmer)
	if err != nil {
		return err
	}
	c.success(ctx, "Fee version %d activated", v.Version)
	return nil
}

func (c *CLI) feeRules(ctx context.Context, _ []string) error {
	rules, err := c.Admin.FeeRules(ctx, fee.RuleFilter{})
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(rules))
	for _, r := range rules {
		rows = append(rows, []string{
			r.ID, r.Gateway, r.Currency, string(r.TransactionType),
			feeText(r.GatewayFeeType, r.GatewayFeeValue.String()),
			feeText(r.PlatformFeeType, r.PlatformFeeValue.String()),
			string(r.Status),
		})
	}
	renderTable(c.Out, []string{"ID", "GATEWAY", "CURRENCY", "TYPE", "GATEWAY FEE", "PLATFORM FEE", "STATUS"}, rows)
	return nil
}

func (c *CLI) activateFeeRule(ctx context.Context, args []string) error {
	r, err := c.Admin.ActivateFeeRuleByID(ctx, args[0], c.Confirmer)
	if err != nil {
		return err
	}
	c.success(ctx, "Fee rule %s activated for %s", r.ID, r.Tuple())
	return nil
}

func (c *CLI) deactivateFeeRule(ctx context.Context, args []string) error {
	r, err := c.Admin.DeactivateFeeRule(ctx, args[0])
	if err != nil {
		return err
	}
	c.success(ctx, "Fee rule %s deactivated", r.ID)
	return nil
}

func (c *CLI) overrides(ctx context.Context, args []string) error {
	list, err := c.Admin.Overrides(ctx, fee.OverrideFilter{MerchantID: args[0]})
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(list))
	for _, o := range list {
		rows = append(rows, []string{
			o.ID, o.Gateway, o.Currency, string(o.TransactionType),
			feeText(o.GatewayFeeType, o.GatewayFeeValue.String()),
			feeText(o.PlatformFeeType, o.PlatformFeeValue.String()),
			string(o.Status),
		})
	}
	renderTable(c.Out, []string{"ID", "GATEWAY", "CURRENCY", "TYPE", "GATEWAY FEE", "PLATFORM FEE", "STATUS"}, rows)
	return nil
}

func (c *CLI) transactions(ctx context.Context, args []string) error {
	page, err := c.Admin.Transactions(ctx, transaction.Filter{})
	if err != nil {
		return err
	}
	items := page.Items
	if len(args) > 0 {
		items = listview.Search(items, strings.Join(args, " "), transaction.SearchFields)
	}
	rows := make([][]string, 0, len(items))
	for _, t := range items {
		rows = append(rows, []string{
			t.Reference, t.MerchantName, t.Gateway, t.TransactionType,
			t.Amount.String() + " " + t.Currency, string(t.Status),
		})
	}
	renderTable(c.Out, []string{"REFERENCE", "MERCHANT", "GATEWAY", "TYPE", "AMOUNT", "STATUS"}, rows)
	fmt.Fprintf(c.Out, "%d of %d transactions\n", len(items), page.Total)
	return nil
}

func (c *CLI) approveKYB(ctx context.Context, args []string) error {
	m, err := c.Admin.Review(ctx, args[0], merchant.ActionApproveKYB, merchant.ReviewInput{})
	if err != nil {
		return err
	}
	c.success(ctx, "KYB approved for %s", m.BusinessName)
	return nil
}

func (c *CLI) rejectKYB(ctx context.Context, args []string) error {
	reason := strings.Join(args[1:], " ")
	m, err := c.Admin.Review(ctx, args[0], merchant.ActionRejectKYB, merchant.ReviewInput{Reason: reason})
	if err != nil {
		return err
	}
	c.success(ctx, "KYB rejected for %s", m.BusinessName)
	return nil
}

func (c *CLI) wallet(ctx context.Context, _ []string) error {
	b, err := c.Wallet.Balance(ctx)
	if err != nil {
		return err
	}
	renderTable(c.Out, []string{"CURRENCY", "AVAILABLE", "PENDING", "RESERVED"}, [][]string{{
		b.Currency, b.Available.StringFixed(2), b.Pending.StringFixed(2), b.Reserved.StringFixed(2),
	}})
	return nil
}

func feeText(t fee.Type, value string) string {
	switch t {
	case fee.Percentage:
		return value + "%"
	case fee.Tiered:
		return "tiered"
	default:
		return value
	}
}
