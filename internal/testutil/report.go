package testutil

// Prescriber DEAs used across fixtures, each with a valid check digit.
// DEAGamma is absent from the practitioner fixture.
const (
	DEAAlpha = "AB1111119"
	DEABeta  = "BB2222228"
	DEAGamma = "CC3333337"
	DEADelta = "DD4444446"
)

// ReportSheets returns the nine-sheet report workbook fixture.
func ReportSheets() []SheetData {
	return []SheetData{
		{Name: "Summary", Rows: [][]interface{}{
			{"Total Prescriptions", 12000},
			{"Controlled Prescriptions", "3,000"},
			{"Controlled %", "25%"},
			{"Cash %", 0.1},
			{"Unique Patients", 850},
			{"Unique Prescribers", 120},
			{"Out of State %", "3.5%"},
		}},
		{Name: "Analysis", Cells: map[string]interface{}{
			"A1": "Top 10 Controlled Substance Prescribers",
			"A5": DEAAlpha, "B5": "Dr. Alpha", "C5": 300,
			"A6": DEABeta, "B6": "Dr. Beta", "C6": 150,
			"A7": DEAGamma, "B7": "Dr. Gamma", "C7": 90,
			"C16": "45%",
			"A19": "1", "B19": "Oxycodone 30mg", "C19": 400, "D19": "13.3%",
			"A20": "2", "B20": "Alprazolam 2mg", "C20": 200, "D20": "6.7%",
			"A21": "3", "B21": "Hydrocodone 10mg", "C21": 150, "D21": "5%",
			"B22": "Unranked", "C22": 1,
		}},
		{Name: "Spatial Analysis", Cells: spatialCells()},
		{Name: "Trinity", Rows: [][]interface{}{
			{"Patient ID", "Opioid", "Benzodiazepine", "Muscle Relaxant"},
			{"P1", "Oxycodone", "Alprazolam", "Carisoprodol"},
			{"P2", "Oxycodone", "Alprazolam", ""},
			{"P1", "Hydrocodone", "Diazepam", "Carisoprodol"},
			{"P9", "Hydrocodone", "Clonazepam", "Carisoprodol"},
		}},
		{Name: "IR Multi", Rows: [][]interface{}{
			{"Patient ID", "Drug Family", "IR Drug Count"},
			{"P1", "Oxycodone", 2},
			{"P3", "oxycodone", 3},
			{"P2", "Hydrocodone", 1},
			{"P4", "Hydrocodone", 2},
		}},
		{Name: "Multi Prescriber", Rows: [][]interface{}{
			{"Patient ID", "Prescriber Count", "Pharmacy Count"},
			{"P1", 3, 3},
			{"P2", 4, 2},
			{"P5", 5, 4},
		}},
		{Name: "MED", Rows: [][]interface{}{
			{"Patient ID", "Prescriber DEA", "Drug Name", "Daily MED"},
			{"P1", DEAAlpha, "Oxycodone HCl 30mg Tab", 180},
			{"P2", "", "Oxycodone HCl 30mg Tab", 200},
			{"P3", DEABeta, "Oxycodone HCl 15mg Tab", 45},
			{"P5", DEAGamma, "Oxycodone HCl 30mg Tab", 300},
		}},
		{Name: "CS Prescriptions", Rows: [][]interface{}{
			{"Rx Number", "Fill Date", "Patient ID", "Prescriber DEA", "Drug Name", "Drug Family", "Quantity", "Days Supply", "Daily Dose", "Payment Type"},
			{"R1", "2024-01-05", "P1", DEAAlpha, "Oxycodone HCl 30mg Tab", "Oxycodone", 120, 30, 120, "Cash"},
			{"R2", "2024-01-09", "P2", DEAAlpha, "Oxycodone HCl 30mg Tab", "Oxycodone", 90, 30, 90, "Insurance"},
			{"R3", "2024-01-12", "P3", DEABeta, "Oxycodone HCl 15mg Tab", "Oxycodone", 60, 30, 30, "Cash"},
			{"R4", "2024-01-15", "P4", DEAGamma, "Oxycodone 30mg Liquid 100ml", "Oxycodone", 500, 30, 150, "Cash"},
			{"R5", "2024-02-01", "P5", DEAGamma, "Oxycodone HCl 30mg Tab", "Oxycodone", 200, 30, 200, "Cash"},
			{"R6", "2024-02-03", "P1", DEADelta, "Alprazolam 2mg Tab", "Alprazolam", 90, 30, 6, "Cash"},
			{"R7", "2024-02-10", "P6", DEABeta, "Alprazolam 1mg Tab", "Alprazolam", 30, 30, 1, "Insurance"},
			{"R8", "2024-02-14", "P7", DEAAlpha, "Methadone 10mg Tab", "Methadone", 90, 30, 30, "Insurance"},
			{"R9", "2024-03-01", "P8", DEADelta, "Methadone 10mg Tab", "Methadone", 180, 30, 70, "Cash"},
		}},
		{Name: "All Prescriptions", Rows: allPrescriptionRows()},
	}
}

func spatialCells() map[string]interface{} {
	cells := map[string]interface{}{
		"A1": "Spatial Analysis",
		"B5": DEAAlpha, "C5": DEABeta, "D5": DEADelta,
	}
	bands := map[string][6]int{
		"B": {0, 0, 0, 0, 2, 3},
		"C": {0, 0, 0, 0, 0, 0},
		"D": {1, 0, 0, 0, 0, 0},
	}
	for col, counts := range bands {
		for i, n := range counts {
			cells[col+itoa(6+i)] = n
		}
	}

	labels := []string{"0-5 mi", "5-10 mi", "10-25 mi", "25-50 mi", "50-100 mi", "100+ mi"}
	cs := []string{"40%", "30%", "15%", "10%", "3%", "2%"}
	nonCS := []string{"50%", "30%", "10%", "5%", "3%", "2%"}
	for _, first := range []int{15, 24, 33} {
		for i := range labels {
			row := itoa(first + i)
			cells["A"+row] = labels[i]
			cells["C"+row] = cs[i]
			cells["E"+row] = nonCS[i]
		}
	}
	return cells
}

func allPrescriptionRows() [][]interface{} {
	rows := [][]interface{}{
		{"Rx Number", "Fill Date", "Patient ID", "Prescriber DEA", "Drug Name", "Controlled", "Payment Type"},
		// Alpha: CSP 3/4, cash 2/3
		{"A1", "2024-01-01", "P1", DEAAlpha, "Oxycodone", "Y", "Cash"},
		{"A2", "2024-01-02", "P2", DEAAlpha, "Oxycodone", "Y", "Cash"},
		{"A3", "2024-01-03", "P7", DEAAlpha, "Methadone", "Y", "Insurance"},
		{"A4", "2024-01-04", "P1", DEAAlpha, "Lisinopril", "N", "Insurance"},
		// Gamma: CSP 1/4, cash 0
		{"C1", "2024-01-01", "P5", DEAGamma, "Oxycodone", "Yes", "Insurance"},
		{"C2", "2024-01-02", "P5", DEAGamma, "Metformin", "No", "Insurance"},
		{"C3", "2024-01-03", "P4", DEAGamma, "Metformin", "No", "Cash"},
		{"C4", "2024-01-04", "P4", DEAGamma, "Atorvastatin", "No", "Cash"},
		// Delta: CSP 1, cash 1
		{"D1", "2024-01-01", "P1", DEADelta, "Alprazolam", "Y", "Cash"},
		{"D2", "2024-01-02", "P8", DEADelta, "Methadone", "Y", "Cash"},
	}
	// Beta: CSP 1/10
	for i := 0; i < 10; i++ {
		controlled := "N"
		if i == 0 {
			controlled = "Y"
		}
		rows = append(rows, []interface{}{"B" + itoa(i), "2024-01-01", "P3", DEABeta, "Drug", controlled, "Cash"})
	}
	return rows
}

// PractitionerSheets returns the practitioner reference fixture
// (DEAGamma is absent).
func PractitionerSheets() []SheetData {
	return []SheetData{{Name: "Reference", Rows: [][]interface{}{
		{"DEA", "Name", "Specialty", "Location", "State", "Disciplinary", "Pharmacist Note", "Note Date"},
		{DEAAlpha, "Dr. Alpha", "Pain Management", "Springfield", "IL", "", "Verified by phone", "2023-11-02"},
		{DEABeta, "Dr. Beta", "Family Medicine", "Peoria", "IL", "", "", ""},
		{DEADelta, "Dr. Delta", "Psychiatry", "St. Louis", "MO", "Board reprimand 2020", "", ""},
	}}}
}

// DrugBlock is one monitored drug's rows in a calculations fixture
type DrugBlock struct {
	Name     string
	Total    string
	PerMonth string
	Expected string
	Variance string
}

// CalculationsRows builds a calculations table with the given drug blocks.
func CalculationsRows(period string, blocks ...DrugBlock) [][]string {
	rows := [][]string{
		{"ACME PHARMACY BA1234567 Calculations " + period, "BA1234567"},
		{"100 Main St\nSpringfield, IL 62701"},
		{"**** Totals ****"},
		{"Aggregate Totals", "12,000", "3,000", "450,000", "90,000"},
		{"Aggregate Percentages", "25%", "10%", "6%", "3.5%"},
		{"Prescription Counts", "66.7", "2,000", "16.7", "500"},
	}
	for _, b := range blocks {
		rows = append(rows,
			[]string{b.Name + " Total Dosage Units", b.Total},
			[]string{"Dosage Units Per Month", b.PerMonth},
			[]string{"Expected Dosage Units Per Month", b.Expected},
			[]string{"Variance", b.Variance},
		)
	}
	return rows
}

// CurrentBlocks is the current-period fixture; Fentanyl is deliberately absent.
func CurrentBlocks() []DrugBlock {
	return []DrugBlock{
		{Name: "Oxycodone", Total: "18,000", PerMonth: "3,000", Expected: "900", Variance: "333%"},
		{Name: "Alprazolam", Total: "6,000", PerMonth: "1,000", Expected: "800", Variance: "125%"},
		{Name: "Methadone", Total: "1,800", PerMonth: "300", Expected: "300", Variance: "100%"},
		{Name: "Hydrocodone", Total: "3,600", PerMonth: "600", Expected: "700", Variance: "86%"},
	}
}

// PriorBlocks is the prior-period fixture
func PriorBlocks() []DrugBlock {
	return []DrugBlock{
		{Name: "Oxycodone", Total: "15,000", PerMonth: "2,500", Expected: "900", Variance: "278%"},
		{Name: "Alprazolam", Total: "6,000", PerMonth: "1,000", Expected: "800", Variance: "125%"},
		{Name: "Methadone", Total: "2,400", PerMonth: "400", Expected: "300", Variance: "133%"},
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// Documents are the four input documents of a complete fixture run
type Documents struct {
	Report        []byte
	Current       []byte // .docx
	Prior         []byte // .html
	Practitioners []byte
}

// BuildDocuments renders every fixture input document
func BuildDocuments() (Documents, error) {
	var (
		d   Documents
		err error
	)
	if d.Report, err = BuildXLSX(ReportSheets()...); err != nil {
		return d, err
	}
	if d.Practitioners, err = BuildXLSX(PractitionerSheets()...); err != nil {
		return d, err
	}
	if d.Current, err = BuildDocx(CalculationsRows("2024-01 to 2024-06", CurrentBlocks()...)); err != nil {
		return d, err
	}
	d.Prior = BuildHTML(CalculationsRows("2023-07 to 2023-12", PriorBlocks()...))
	return d, nil
}
