package report

// Sheet names of the report workbook
const (
	SheetSummary         = "Summary"
	SheetAnalysis        = "Analysis"
	SheetSpatial         = "Spatial Analysis"
	SheetTrinity         = "Trinity"
	SheetIRMulti         = "IR Multi"
	SheetMultiPrescriber = "Multi Prescriber"
	SheetMED             = "MED"
	SheetControlled      = "CS Prescriptions"
	SheetAll             = "All Prescriptions"
)

// Summary labels (column A, value in column B)
const (
	LabelTotalRx           = "Total Prescriptions"
	LabelControlledRx      = "Controlled Prescriptions"
	LabelControlledPct     = "Controlled %"
	LabelCashPct           = "Cash %"
	LabelUniquePatients    = "Unique Patients"
	LabelUniquePrescribers = "Unique Prescribers"
	LabelOutOfStatePct     = "Out of State %"
)

// Analysis coordinates
const (
	analysisPrescriberFirstRow = 5
	analysisPrescriberLastRow  = 14
	analysisDEACol             = 1
	analysisNameCol            = 2
	analysisCountCol           = 3
	analysisShareCell          = "C16"

	analysisDrugFirstRow = 19
	analysisDrugLastRow  = 28
	analysisMarkerCol    = 1
	analysisDrugCol      = 2
	analysisDrugCountCol = 3
	analysisDrugPctCol   = 4
)

// Spatial Analysis coordinates
const (
	spatialTopDEARow   = 5
	spatialTopFirstCol = 2
	spatialTopCount    = 10

	// Bands is the number of distance bands in every spatial table
	Bands = 6

	spatialPharmacyPrescriberRow = 15
	spatialPharmacyPatientRow    = 24
	spatialPrescriberPatientRow  = 33
	spatialLabelCol              = 1
	spatialCSOffset              = 2
	spatialNonCSOffset           = 4

	// last band row of the prescriber/patient table, non-CS column
	spatialLastBandCell = "E38"
)

// Tabular sheet headers
const (
	ColPatientID     = "Patient ID"
	ColOpioid        = "Opioid"
	ColBenzo         = "Benzodiazepine"
	ColMuscleRelax   = "Muscle Relaxant"
	ColDrugFamily    = "Drug Family"
	ColIRDrugCount   = "IR Drug Count"
	ColPrescribers   = "Prescriber Count"
	ColPharmacies    = "Pharmacy Count"
	ColPrescriberDEA = "Prescriber DEA"
	ColDrugName      = "Drug Name"
	ColDailyMED      = "Daily MED"
	ColRxNumber      = "Rx Number"
	ColFillDate      = "Fill Date"
	ColQuantity      = "Quantity"
	ColDaysSupply    = "Days Supply"
	ColDailyDose     = "Daily Dose"
	ColPaymentType   = "Payment Type"
	ColControlled    = "Controlled"

	headerRow = 1
)

// Schema is the minimum used range a present sheet must cover.
type Schema struct {
	Sheet   string
	MaxCell string
}

// Schemas lists the furthest cell each sheet always fills: header rows, the
// top-share aggregate and the last band row of the spatial tables. Top-10
// slots are optional and never count.
var Schemas = []Schema{
	{Sheet: SheetSummary, MaxCell: "B1"},
	{Sheet: SheetAnalysis, MaxCell: analysisShareCell},
	{Sheet: SheetSpatial, MaxCell: spatialLastBandCell},
	{Sheet: SheetTrinity, MaxCell: "D1"},
	{Sheet: SheetIRMulti, MaxCell: "C1"},
	{Sheet: SheetMultiPrescriber, MaxCell: "C1"},
	{Sheet: SheetMED, MaxCell: "D1"},
	{Sheet: SheetControlled, MaxCell: "J1"},
	{Sheet: SheetAll, MaxCell: "G1"},
}
