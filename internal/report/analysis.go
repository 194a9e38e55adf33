package report

import "github.com/garyjia/pharmacy-audit/internal/source"

// PrescriberVolume is one top-10 controlled-substance prescriber
type PrescriberVolume struct {
	DEA   string
	Name  string
	Count float64
}

// DrugVolume is one top-10 drug by prescription count
type DrugVolume struct {
	Rank  string
	Drug  string
	Count float64
	Pct   float64
}

// Analysis reads the fixed top-10 blocks of the analysis sheet
type Analysis struct {
	sheet *source.Sheet

	loaded      bool
	prescribers []PrescriberVolume
	drugs       []DrugVolume
	share       float64
}

// TopPrescribers returns up to ten prescribers, skipping rows without a DEA
func (a *Analysis) TopPrescribers() []PrescriberVolume {
	a.load()
	return a.prescribers
}

// TopDrugs returns the ranked drug rows that carry a rank marker
func (a *Analysis) TopDrugs() []DrugVolume {
	a.load()
	return a.drugs
}

// TopShare is the top-10 prescribers' share of controlled volume (fraction)
func (a *Analysis) TopShare() float64 {
	a.load()
	return a.share
}

func (a *Analysis) load() {
	if a.loaded {
		return
	}
	a.loaded = true

	for row := analysisPrescriberFirstRow; row <= analysisPrescriberLastRow; row++ {
		dea := a.sheet.At(analysisDEACol, row)
		if dea == "" {
			continue
		}
		count, _ := source.ParseNumber(a.sheet.At(analysisCountCol, row))
		a.prescribers = append(a.prescribers, PrescriberVolume{
			DEA:   dea,
			Name:  a.sheet.At(analysisNameCol, row),
			Count: count,
		})
	}

	for row := analysisDrugFirstRow; row <= analysisDrugLastRow; row++ {
		marker := a.sheet.At(analysisMarkerCol, row)
		if marker == "" {
			continue
		}
		count, _ := source.ParseNumber(a.sheet.At(analysisDrugCountCol, row))
		pct, _ := source.ParsePercent(a.sheet.At(analysisDrugPctCol, row))
		a.drugs = append(a.drugs, DrugVolume{
			Rank:  marker,
			Drug:  a.sheet.At(analysisDrugCol, row),
			Count: count,
			Pct:   pct,
		})
	}

	a.share, _ = source.ParsePercent(a.sheet.Cell(analysisShareCell))
}
