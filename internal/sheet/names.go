package sheet

import "fmt"

// Output sheet names
const (
	SheetCommon     = "common"
	SheetDEAConcern = "deaconcern"
	SheetCSCash     = "cscash"
	SheetArcos      = "arcos"
	SheetTop10CS    = "top10cs"
	SheetTopDr      = "topdr"
	SheetAIGTable   = "aigtable"

	aigPrefix = "aig"
)

// AIGSheetName returns the sheet name of AIG sheet index i (1-based)
func AIGSheetName(i int) string {
	return fmt.Sprintf("%s%d", aigPrefix, i)
}
