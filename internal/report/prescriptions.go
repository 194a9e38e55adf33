package report

import (
	"strings"

	"github.com/garyjia/pharmacy-audit/internal/source"
)

const (
	paymentCash  = "cash"
	liquidSuffix = "ml"
)

// ControlledRx is one controlled-substance prescription row
type ControlledRx struct {
	RxNumber   string
	FillDate   string
	PatientID  string
	DEA        string
	Drug       string
	Family     string
	Quantity   float64
	DaysSupply float64
	DailyDose  float64
	Payment    string
}

// Liquid reports whether the drug is a liquid formulation (name ends in ml)
func (c ControlledRx) Liquid() bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(c.Drug)), liquidSuffix)
}

// Cash reports a cash-paid fill
func (c ControlledRx) Cash() bool {
	return strings.EqualFold(c.Payment, paymentCash)
}

// Rx is one row of the all-prescriptions sheet
type Rx struct {
	RxNumber   string
	FillDate   string
	PatientID  string
	DEA        string
	Drug       string
	Controlled bool
	Payment    string
}

// Cash reports a cash-paid fill
func (r Rx) Cash() bool {
	return strings.EqualFold(r.Payment, paymentCash)
}

// Prescriptions exposes the raw controlled and all-prescription rows
type Prescriptions struct {
	controlledSheet *source.Sheet
	allSheet        *source.Sheet

	controlled   []ControlledRx
	controlledOK bool
	all          []Rx
	allOK        bool
	byDEA        map[string][]Rx
}

// Controlled returns every controlled-substance row
func (p *Prescriptions) Controlled() []ControlledRx {
	if p.controlledOK {
		return p.controlled
	}
	p.controlledOK = true
	for _, rec := range p.controlledSheet.Records(headerRow) {
		p.controlled = append(p.controlled, ControlledRx{
			RxNumber:   rec.Get(ColRxNumber),
			FillDate:   rec.Get(ColFillDate),
			PatientID:  rec.Get(ColPatientID),
			DEA:        rec.Get(ColPrescriberDEA),
			Drug:       rec.Get(ColDrugName),
			Family:     rec.Get(ColDrugFamily),
			Quantity:   rec.Number(ColQuantity),
			DaysSupply: rec.Number(ColDaysSupply),
			DailyDose:  rec.Number(ColDailyDose),
			Payment:    rec.Get(ColPaymentType),
		})
	}
	return p.controlled
}

// All returns every prescription row
func (p *Prescriptions) All() []Rx {
	if p.allOK {
		return p.all
	}
	p.allOK = true
	p.byDEA = make(map[string][]Rx)
	for _, rec := range p.allSheet.Records(headerRow) {
		rx := Rx{
			RxNumber:   rec.Get(ColRxNumber),
			FillDate:   rec.Get(ColFillDate),
			PatientID:  rec.Get(ColPatientID),
			DEA:        rec.Get(ColPrescriberDEA),
			Drug:       rec.Get(ColDrugName),
			Controlled: truthy(rec.Get(ColControlled)),
			Payment:    rec.Get(ColPaymentType),
		}
		p.all = append(p.all, rx)
		key := strings.ToUpper(rx.DEA)
		p.byDEA[key] = append(p.byDEA[key], rx)
	}
	return p.all
}

// ByPrescriber returns all-prescription rows written by dea
func (p *Prescriptions) ByPrescriber(dea string) []Rx {
	p.All()
	return p.byDEA[strings.ToUpper(strings.TrimSpace(dea))]
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "n", "no", "false", "0":
		return false
	}
	return true
}
