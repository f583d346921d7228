package steps

import (
	"regexp"
	"strings"

	"ai-buildguide-be/pkg/store"
)

// Template kinds picked by Templates.
const (
	KindKitBuild  = "kit-build"
	KindFurniture = "furniture"
	KindGeneric   = "generic"
)

var constructionToyKeywords = []string{"lego", "duplo", "mega bloks", "k'nex", "knex", "building set", "brick"}

var furnitureKeywords = []string{"shelf", "shelves", "desk", "table", "chair", "cabinet", "dresser", "bookcase", "bed", "ikea", "wardrobe", "drawer"}

// keywords match whole words, optionally pluralised
var (
	constructionToyPattern = wordPattern(constructionToyKeywords)
	furniturePattern       = wordPattern(furnitureKeywords)
)

var kitBuildSteps = []store.InstructionStep{
	{
		Title:       "Sort the pieces",
		Description: "Open the numbered bags and sort the pieces by colour and size.",
		Details:     []string{"Work on a flat, well-lit surface", "Keep a tray for small parts"},
		Tip:         "Open one bag at a time to avoid mixing sets.",
	},
	{
		Title:       "Build the base",
		Description: "Assemble the base plate or frame shown at the start of the booklet.",
		Details:     []string{"Press each brick down until it clicks", "Check alignment against the picture"},
	},
	{
		Title:       "Add the main structure",
		Description: "Build up the walls, body or main sub-assemblies on the base.",
		Details:     []string{"Follow the booklet page by page", "Count studs before placing long pieces"},
		Tip:         "If a step looks wrong, compare the previous page before moving on.",
	},
	{
		Title:       "Attach details",
		Description: "Add decorations, moving parts, stickers and minifigures.",
		Details:     []string{"Apply stickers with dry fingers", "Test moving parts gently"},
	},
	{
		Title:       "Final check",
		Description: "Compare the finished model with the box art and tidy up spare pieces.",
		Details:     []string{"Spare pieces are normal", "Store the booklet for rebuilding"},
	},
}

var furnitureSteps = []store.InstructionStep{
	{
		Title:       "Unpack and check parts",
		Description: "Lay out every panel and hardware bag and check them against the parts list.",
		Details:     []string{"Protect the floor with the box cardboard", "Group screws and dowels by type"},
		Tip:         "Report missing parts before you start.",
	},
	{
		Title:       "Prepare the main panels",
		Description: "Insert dowels, cam locks and pre-fitted hardware into the main panels.",
		Details:     []string{"Tap dowels in by hand", "Turn cam locks so the opening faces the edge"},
	},
	{
		Title:       "Assemble the frame",
		Description: "Join the side, top and bottom panels to form the carcass or frame.",
		Details:     []string{"Keep finished edges facing out", "Hand-tighten first, tighten fully later"},
		Tip:         "A second person makes this step much easier.",
	},
	{
		Title:       "Fit back panel and moving parts",
		Description: "Attach the back panel, shelves, drawers, legs or doors.",
		Details:     []string{"Check the frame is square before nailing the back", "Adjust hinges until doors align"},
	},
	{
		Title:       "Secure and finish",
		Description: "Tighten all fittings, level the piece and fix it to the wall if required.",
		Details:     []string{"Use the supplied anti-tip hardware", "Keep the spare hardware"},
	},
}

var genericSteps = []store.InstructionStep{
	{
		Title:       "Unpack",
		Description: "Remove all parts from the packaging and lay them out.",
		Details:     []string{"Keep the packaging until assembly is complete"},
	},
	{
		Title:       "Identify the parts",
		Description: "Match every part against the parts list or diagram.",
		Details:     []string{"Sort small hardware into groups"},
		Tip:         "Photograph the layout so you can check it later.",
	},
	{
		Title:       "Assemble the main body",
		Description: "Connect the largest components first to form the main body.",
		Details:     []string{"Hand-tighten fasteners until everything is in place"},
	},
	{
		Title:       "Attach remaining parts",
		Description: "Fit the remaining smaller components and accessories.",
		Details:     []string{"Check orientation before fastening"},
	},
	{
		Title:       "Inspect and test",
		Description: "Tighten all fasteners and check the product works as intended.",
		Details:     []string{"Look for loose or leftover parts"},
	},
}

// Kind picks the template family for a product title.
func Kind(title string) string {
	t := strings.ToLower(title)
	if constructionToyPattern.MatchString(t) {
		return KindKitBuild
	}
	if furniturePattern.MatchString(t) {
		return KindFurniture
	}
	return KindGeneric
}

// Templates returns a fresh copy of the five fallback steps for title.
func Templates(title string) []store.InstructionStep {
	switch Kind(title) {
	case KindKitBuild:
		return clone(kitBuildSteps)
	case KindFurniture:
		return clone(furnitureSteps)
	default:
		return clone(genericSteps)
	}
}

func clone(src []store.InstructionStep) []store.InstructionStep {
	out := make([]store.InstructionStep, len(src))
	for i, s := range src {
		s.Ordinal = i + 1
		s.Details = append([]string(nil), s.Details...)
		out[i] = s
	}
	return out
}

func wordPattern(keywords []string) *regexp.Regexp {
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)(?:e?s)?\b`)
}
