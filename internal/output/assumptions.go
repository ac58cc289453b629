package output

// DefaultAssumptions lists the terms printed under every quote.
var DefaultAssumptions = []string{
	"Premiums are indicative until the quote is submitted and underwritten",
	"Statutory levies apply where the line charges them: stamp duty KES 40, PHCF 0.25%, training levy 0.2%",
	"Add-on percentages are charged on the base amount before adjustments",
	"Rates are annual unless the cover period says otherwise",
}
