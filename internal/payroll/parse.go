package payroll

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Embedded payloads store ringgit values as JSON numbers (occasionally as
// numeric strings). The wire types below absorb that looseness; everything
// downstream works in minor units.

type wireNumber float64

func (n *wireNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*n = 0
			return nil
		}
		var v float64
		if _, err := fmt.Sscanf(s, "%g", &v); err != nil {
			return fmt.Errorf("numeric string %q: %w", s, err)
		}
		*n = wireNumber(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = wireNumber(v)
	return nil
}

func (n wireNumber) amount() Amount { return AmountFromRM(float64(n)) }

type wireEarnings struct {
	BasicPay       wireNumber          `json:"basicPay"`
	Allowance      wireNumber          `json:"allowance"`
	Overtime       wireNumber          `json:"overtime"`
	CustomEarnings []wireCustomEarning `json:"customEarnings"`
	Incentive      *wireIncentive      `json:"performanceIncentive"`
	GrossPay       wireNumber          `json:"grossPay"`
}

type wireCustomEarning struct {
	Name   string     `json:"name"`
	Amount wireNumber `json:"amount"`
}

type wireIncentive struct {
	Enabled bool       `json:"enabled"`
	Amount  wireNumber `json:"amount"`
}

type wireDeduction struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Amount    wireNumber `json:"amount"`
	Kind      string     `json:"type"`
	Mandatory bool       `json:"mandatory"`
}

// ParseEarnings decodes an embedded earnings payload. A nil/empty payload
// returns the zero value without error; a malformed one returns the zero
// value plus the decode error so the caller can log the degradation.
func ParseEarnings(raw []byte) (Earnings, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Earnings{}, nil
	}
	var w wireEarnings
	if err := json.Unmarshal(raw, &w); err != nil {
		return Earnings{}, fmt.Errorf("decode earnings: %w", err)
	}
	e := Earnings{
		BasicPay:  w.BasicPay.amount(),
		Allowance: w.Allowance.amount(),
		Overtime:  w.Overtime.amount(),
		GrossPay:  w.GrossPay.amount(),
	}
	for _, c := range w.CustomEarnings {
		e.CustomEarnings = append(e.CustomEarnings, CustomEarning{
			Name:   c.Name,
			Amount: c.Amount.amount(),
		})
	}
	if w.Incentive != nil {
		e.Incentive = Incentive{Enabled: w.Incentive.Enabled, Amount: w.Incentive.Amount.amount()}
	}
	return e, nil
}

// ParseDeductions decodes an embedded deduction list, tagging every line
// with the given kind when the payload does not carry one. Same degradation
// contract as ParseEarnings: empty in, empty out; malformed in, empty out
// plus the error.
func ParseDeductions(raw []byte, kind DeductionKind) ([]Deduction, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var wire []wireDeduction
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decode %s deductions: %w", kind, err)
	}
	out := make([]Deduction, 0, len(wire))
	for _, w := range wire {
		d := Deduction{
			ID:        w.ID,
			Name:      w.Name,
			Amount:    w.Amount.amount(),
			Kind:      kind,
			Mandatory: w.Mandatory,
		}
		switch DeductionKind(w.Kind) {
		case DeductionEmployee, DeductionEmployer:
			d.Kind = DeductionKind(w.Kind)
		}
		out = append(out, d)
	}
	return out, nil
}

// SumDeductions totals a deduction list.
func SumDeductions(ds []Deduction) Amount {
	var total Amount
	for _, d := range ds {
		total += d.Amount
	}
	return total
}
