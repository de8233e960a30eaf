package cli

import (
	"fmt"
	"strings"

	"github.com/montelibero/npi/internal/checks"
	"github.com/montelibero/npi/internal/model"
)

// RenderReport formats a compliance report for the terminal.
func RenderReport(report *model.Report) string {
	var b strings.Builder

	if report.Success() {
		b.WriteString(SuccessStyle.Render(SuccessIcon + " All members have valid rights"))
		b.WriteString("\n")
	} else {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("%s Found %d violations:", ErrorIcon, len(report.Violations))))
		b.WriteString("\n")
		for _, v := range report.Violations {
			b.WriteString(renderViolation(v))
		}
	}

	if len(report.Verifications) > 0 {
		b.WriteString("\n")
		b.WriteString(TitleStyle.Render("Verified members:"))
		b.WriteString("\n")
		for _, v := range report.Verifications {
			b.WriteString(renderVerification(v))
		}
	}

	return b.String()
}

func renderViolation(v model.Violation) string {
	var b strings.Builder

	name := BoldStyle.Render("@" + v.Username)
	if v.Stellar != "" {
		b.WriteString(fmt.Sprintf("  %s %s\n", name, SubtleStyle.Render("("+string(v.Stellar)+")")))
	} else {
		b.WriteString(fmt.Sprintf("  %s\n", name))
	}
	for _, reason := range v.Reasons {
		b.WriteString(fmt.Sprintf("    %s %s\n", ErrorStyle.Render(CrossIcon), reason))
	}

	return b.String()
}

func renderVerification(v model.Verification) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("  %s %s\n",
		BoldStyle.Render("@"+v.Username),
		SubtleStyle.Render("("+string(v.Stellar)+")")))

	switch v.Basis.Type {
	case model.BasisExpert:
		b.WriteString(fmt.Sprintf("    %s Expert tag found\n", SuccessStyle.Render(CheckIcon)))
	case model.BasisTokenPayment:
		d := v.Basis.Details
		b.WriteString(fmt.Sprintf("    %s Token payment: %s tokens", SuccessStyle.Render(CheckIcon), d.TokensAmount))
		if d.MonthsCovered != nil {
			b.WriteString(fmt.Sprintf(" covering %d months", *d.MonthsCovered))
		}
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("      %s\n", SubtleStyle.Render("last payment "+d.Date+" tx "+d.TransactionHash)))
		if d.PaymentFrom != "" {
			b.WriteString(fmt.Sprintf("      %s\n", SubtleStyle.Render("paid by "+string(d.PaymentFrom))))
		}
	}

	return b.String()
}

// RenderCheckResult formats a single check outcome for the terminal.
func RenderCheckResult(result checks.Result) string {
	if result.Success {
		return SuccessStyle.Render(SuccessIcon+" "+result.Message) + "\n"
	}
	return ErrorStyle.Render(ErrorIcon+" "+result.Message) + "\n"
}
