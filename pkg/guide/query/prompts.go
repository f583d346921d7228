package query

const (
	ProductQueryPrompt = `
You turn a scanned product barcode into a web search query.

Barcode: %s

Instructions:
1. Reply with ONE search query that would identify the product behind this UPC/EAN code.
2. No explanations, no quotes, no numbering. A single line only.
`

	InstructionQueryPrompt = `
You write search queries that find official assembly instructions.

Product: %s

Instructions:
1. Reply with ONE search query that finds the assembly or build instructions manual for this product.
2. Prefer manufacturer wording such as "instructions" or "assembly manual".
3. A single line only, no quotes.
`

	IdentifyTitlePrompt = `
You are a Product Identification Agent.
The search results below were returned for the barcode %s.

Search Results:
%s

Instructions:
1. Pick the product name that most results agree on.
2. Reply with the product name only: brand and model, no barcode, no extra words.
`
)
