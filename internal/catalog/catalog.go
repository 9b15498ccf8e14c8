// Package catalog holds the static reference data the generators draw from:
// item templates, rarity and condition tables, locations and their price
// biases, duel boosts, bag tiers and tools.
package catalog

type Category string

const (
	CategoryAmp    Category = "Amp"
	CategoryGuitar Category = "Guitar"
	CategoryPedal  Category = "Pedal"
	CategoryParts  Category = "Parts"
)

var Categories = []Category{CategoryAmp, CategoryGuitar, CategoryPedal, CategoryParts}

// Slots is the inventory space one item of the category occupies.
func (c Category) Slots() int {
	switch c {
	case CategoryAmp:
		return 3
	case CategoryGuitar:
		return 2
	default:
		return 1
	}
}

type Rarity string

const (
	RarityCommon    Rarity = "Common"
	RarityUncommon  Rarity = "Uncommon"
	RarityRare      Rarity = "Rare"
	RarityLegendary Rarity = "Legendary"
)

var Rarities = []Rarity{RarityCommon, RarityUncommon, RarityRare, RarityLegendary}

// Rank orders rarities from 0 (common) to 3 (legendary). Unknown values rank -1.
func (r Rarity) Rank() int {
	for i, v := range Rarities {
		if v == r {
			return i
		}
	}
	return -1
}

// Weight is the population weight used when sampling templates.
func (r Rarity) Weight() float64 {
	switch r {
	case RarityCommon:
		return 60
	case RarityUncommon:
		return 27
	case RarityRare:
		return 10
	case RarityLegendary:
		return 3
	default:
		return 0
	}
}

type Condition string

const (
	ConditionMint    Condition = "Mint"
	ConditionGood    Condition = "Good"
	ConditionProject Condition = "Project"
)

var Conditions = []Condition{ConditionMint, ConditionGood, ConditionProject}

func (c Condition) Weight() float64 {
	switch c {
	case ConditionMint:
		return 20
	case ConditionGood:
		return 55
	case ConditionProject:
		return 25
	default:
		return 0
	}
}

func (c Condition) Multiplier() float64 {
	switch c {
	case ConditionMint:
		return 1.20
	case ConditionProject:
		return 0.70
	default:
		return 1.00
	}
}

// Upgrade is the condition a luthier can bring the item to. ok is false for Mint.
func (c Condition) Upgrade() (Condition, bool) {
	switch c {
	case ConditionProject:
		return ConditionGood, true
	case ConditionGood:
		return ConditionMint, true
	default:
		return c, false
	}
}

type Template struct {
	Name        string
	Category    Category
	Rarity      Rarity
	BasePrice   int
	ScamRisk    float64
	HeatRisk    float64
	Description string
}

var Templates = []Template{
	{"Tube Screamer Clone", CategoryPedal, RarityCommon, 90, 0.05, 0.02, "Green box, scuffed paint, still screams."},
	{"Budget Fuzz Pedal", CategoryPedal, RarityCommon, 70, 0.04, 0.02, "Velcro still on the bottom."},
	{"Analog Delay", CategoryPedal, RarityUncommon, 220, 0.08, 0.05, "Bucket-brigade chips, warm repeats."},
	{"Boutique Overdrive", CategoryPedal, RarityRare, 480, 0.18, 0.12, "Hand-wired, waitlist-only build."},
	{"Klon Centaur", CategoryPedal, RarityLegendary, 5200, 0.45, 0.40, "Gold enclosure. Everyone wants one. Everyone fakes one."},
	{"Pickup Set (Humbucker)", CategoryParts, RarityCommon, 120, 0.06, 0.03, "Pulled from a working guitar, seller says."},
	{"Locking Tuners", CategoryParts, RarityCommon, 80, 0.03, 0.02, "Six-in-line, chrome."},
	{"Vintage PAF Pickup", CategoryParts, RarityRare, 1800, 0.35, 0.30, "Patent sticker on the base. Maybe."},
	{"Bone Nut Blank Lot", CategoryParts, RarityCommon, 45, 0.02, 0.01, "A sandwich bag of bone blanks."},
	{"Tremolo Bridge", CategoryParts, RarityUncommon, 160, 0.05, 0.04, "Knife edges look fine."},
	{"Squier Strat", CategoryGuitar, RarityCommon, 220, 0.04, 0.05, "Beginner classic with a cigarette burn."},
	{"Epiphone Les Paul", CategoryGuitar, RarityCommon, 380, 0.06, 0.06, "Heavy, glossy, dependable."},
	{"Mexican Telecaster", CategoryGuitar, RarityUncommon, 650, 0.08, 0.10, "Road-worn finish, real or not."},
	{"Gibson SG Standard", CategoryGuitar, RarityUncommon, 1200, 0.12, 0.18, "Cherry red, headstock repair disclosed."},
	{"American Strat '62 Reissue", CategoryGuitar, RarityRare, 2100, 0.16, 0.25, "Tweed case, hang tags included."},
	{"Gretsch White Falcon", CategoryGuitar, RarityRare, 3400, 0.20, 0.32, "Gold sparkle binding, loud and fragile."},
	{"1959 Les Paul Burst", CategoryGuitar, RarityLegendary, 14000, 0.55, 0.65, "Serial number looks too clean."},
	{"Pre-CBS Stratocaster", CategoryGuitar, RarityLegendary, 11000, 0.50, 0.60, "Slab board, faded sunburst."},
	{"Practice Combo 15W", CategoryAmp, RarityCommon, 110, 0.03, 0.02, "Bedroom hero starter amp."},
	{"Blues Junior", CategoryAmp, RarityCommon, 420, 0.05, 0.05, "Reliable small tube combo."},
	{"Hot Rod Deluxe", CategoryAmp, RarityUncommon, 700, 0.07, 0.08, "Loud enough for any bar."},
	{"Vox AC30", CategoryAmp, RarityUncommon, 1100, 0.09, 0.12, "Chime for days, weighs a ton."},
	{"Marshall JCM800 Head", CategoryAmp, RarityRare, 1900, 0.15, 0.22, "Plexi-era attitude, modded loop."},
	{"Fender Tweed Deluxe", CategoryAmp, RarityRare, 2600, 0.22, 0.30, "Original speaker, recapped."},
	{"Dumble Overdrive Special", CategoryAmp, RarityLegendary, 9000, 0.60, 0.70, "Nobody has ever seen one sell in person."},
	{"Cable & Strap Bundle", CategoryParts, RarityCommon, 40, 0.01, 0.00, "Tangled but functional."},
}

// TemplatesByRarity returns the templates of one rarity in catalog order.
func TemplatesByRarity(r Rarity) []Template {
	var out []Template
	for _, t := range Templates {
		if t.Rarity == r {
			out = append(out, t)
		}
	}
	return out
}

// Lookup finds a template by exact name.
func Lookup(name string) (Template, bool) {
	for _, t := range Templates {
		if t.Name == name {
			return t, true
		}
	}
	return Template{}, false
}

type Location struct {
	Name         string
	Blurb        string
	CategoryBias map[Category]float64
}

var Locations = []Location{
	{
		Name:         "Downtown Music Row",
		Blurb:        "Showrooms and consignment walls. Fair prices, fewer surprises.",
		CategoryBias: map[Category]float64{
			CategoryGuitar: 0.06, CategoryAmp: 0.04, CategoryPedal: 0.02, CategoryParts: 0.00,
		},
	},
	{
		Name:         "Pawn Shop Strip",
		Blurb:        "Cash only, no questions, plenty of dust.",
		CategoryBias: map[Category]float64{
			CategoryGuitar: -0.08, CategoryAmp: -0.06, CategoryPedal: -0.04, CategoryParts: -0.05,
		},
	},
	{
		Name:         "Suburban Garage Sales",
		Blurb:        "Dads clearing out their basements.",
		CategoryBias: map[Category]float64{
			CategoryGuitar: -0.04, CategoryAmp: -0.10, CategoryPedal: 0.00, CategoryParts: -0.02,
		},
	},
	{
		Name:         "Vintage Collectors Expo",
		Blurb:        "Glass cases, white gloves, inflated tags.",
		CategoryBias: map[Category]float64{
			CategoryGuitar: 0.10, CategoryAmp: 0.08, CategoryPedal: 0.05, CategoryParts: 0.06,
		},
	},
	{
		Name:         "Online Marketplace",
		Blurb:        "Endless listings and blurry photos.",
		CategoryBias: map[Category]float64{
			CategoryGuitar: 0.00, CategoryAmp: -0.02, CategoryPedal: 0.08, CategoryParts: 0.04,
		},
	},
}

const DefaultLocation = "Downtown Music Row"

func LookupLocation(name string) (Location, bool) {
	for _, l := range Locations {
		if l.Name == name {
			return l, true
		}
	}
	return Location{}, false
}

// LocationBias is the category bias at a location; unknown locations are neutral.
func LocationBias(location string, c Category) float64 {
	l, ok := LookupLocation(location)
	if !ok {
		return 0
	}
	return l.CategoryBias[c]
}

// Boost is a consumable performance item used in jam duels.
type Boost struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Price           int     `json:"price"`
	PlayerBonus     float64 `json:"player_bonus"`
	Variance        float64 `json:"variance"`
	OpponentPenalty float64 `json:"opponent_penalty"`
	RepBonus        int     `json:"rep_bonus"`
}

var Boosts = []Boost{
	{ID: "fresh-strings", Name: "Fresh Strings", Price: 25, PlayerBonus: 3, Variance: 2},
	{ID: "slide", Name: "Glass Slide", Price: 35, PlayerBonus: 2, Variance: 8, RepBonus: 1},
	{ID: "compressor", Name: "Studio Compressor", Price: 90, PlayerBonus: 6, Variance: -2},
	{ID: "smoke-machine", Name: "Smoke Machine", Price: 120, PlayerBonus: 1, Variance: 4, OpponentPenalty: 6, RepBonus: 1},
	{ID: "ebow", Name: "EBow", Price: 150, PlayerBonus: 5, Variance: 6, RepBonus: 2},
}

func LookupBoost(id string) (Boost, bool) {
	for _, b := range Boosts {
		if b.ID == id {
			return b, true
		}
	}
	return Boost{}, false
}

// BagCapacity is the inventory slot capacity of a bag tier (0-2).
func BagCapacity(tier int) int {
	switch {
	case tier <= 0:
		return 8
	case tier == 1:
		return 12
	default:
		return 18
	}
}

// BagUpgradeCost is the price of moving from tier to tier+1; ok is false at max tier.
func BagUpgradeCost(tier int) (int, bool) {
	switch tier {
	case 0:
		return 350, true
	case 1:
		return 900, true
	default:
		return 0, false
	}
}

const MaxBagTier = 2

type Tool string

const (
	ToolSerialScanner Tool = "serial-scanner"
	ToolUVLight       Tool = "uv-light"
)

func ToolPrice(t Tool) (int, bool) {
	switch t {
	case ToolSerialScanner:
		return 300, true
	case ToolUVLight:
		return 150, true
	default:
		return 0, false
	}
}
