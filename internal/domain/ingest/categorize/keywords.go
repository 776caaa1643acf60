package categorize

import "github.com/shopspring/decimal"

// Fallback category names used when no configured category applies.
const (
	CategorySalary        = "Salary"
	CategoryInvestment    = "Investment"
	CategoryOtherIncome   = "Other Income"
	CategoryUncategorised = "Uncategorised"
)

// AmountBand maps a transaction amount ceiling to a category. Bands are
// evaluated in order; the final band has no ceiling.
type AmountBand struct {
	UpTo     decimal.Decimal
	Category string
}

// Table is the locale-specific categorization configuration: keyword
// vocabulary per category, amount-band fallbacks, and the score a
// keyword match must clear. It is plain data so deployments can swap it
// without touching the scoring code.
type Table struct {
	// Keywords maps category name to its keyword vocabulary. Keywords
	// are matched case-insensitively as substrings.
	Keywords map[string][]string
	// Bands is the amount fallback ladder for debits with no keyword
	// winner, ordered by ascending ceiling.
	Bands []AmountBand
	// TopBand catches debits above every band ceiling.
	TopBand string
	// Threshold is the minimum keyword score for a category to win.
	Threshold float64
}

// DefaultTable returns the Singapore table.
func DefaultTable() Table {
	return Table{
		Keywords: map[string][]string{
			"Food & Drinks": {
				"MCDONALD", "KFC", "BURGER KING", "SUBWAY", "PIZZA HUT", "DOMINO",
				"STARBUCKS", "COFFEE BEAN", "YA KUN", "TOAST BOX", "KOPITIAM",
				"HAWKER", "FOOD COURT", "COFFEE", "CAFE", "RESTAURANT", "BISTRO",
				"DELIVEROO", "FOODPANDA", "GRAB FOOD", "KITCHEN", "DINING",
				"BREAD TALK", "FOUR FINGERS", "SWENSEN", "CARL JR", "EATERY",
			},
			"Groceries": {
				"NTUC", "FAIRPRICE", "COLD STORAGE", "GIANT", "SHENG SIONG",
				"PRIME SUPERMARKET", "MARKETPLACE", "FRESH MART", "GROCERY",
				"SUPERMARKET", "MARKET", "WET MARKET", "PROVISION",
			},
			"Transport": {
				"EZ-LINK", "EZ LINK", "EZLINK", "TRANSIT LINK", "MRT", "BUS",
				"GRAB", "GOJEK", "TAXI", "COMFORT", "PREMIER TAXI", "TRANS CAB",
				"SHELL", "ESSO", "CALTEX", "MOBIL", "SINOPEC", "PETROL", "FUEL",
				"PARKING", "CARPARK", "ERP", "ROAD TAX", "INSURANCE VEHICLE",
				"WORKSHOP", "SERVICING", "COE", "AUTOMOBILE",
			},
			"Shopping": {
				"SHOPEE", "LAZADA", "AMAZON", "QOO10", "CAROUSEL", "ZALORA",
				"UNIQLO", "H&M", "ZARA", "COTTON ON", "CHARLES KEITH",
				"TAKASHIMAYA", "ION ORCHARD", "VIVOCITY", "JURONG POINT",
				"WESTGATE", "PLAZA SINGAPURA", "BUGIS JUNCTION", "SHOPPING",
				"MALL", "DEPARTMENT STORE", "FASHION", "CLOTHING", "SHOES",
			},
			"Bills & Utilities": {
				"SINGTEL", "STARHUB", "M1", "CIRCLES LIFE", "GIGA", "TELCO",
				"SP GROUP", "SP SERVICES", "PUB", "UTILITIES", "ELECTRICITY",
				"WATER", "GAS", "TOWN COUNCIL", "CONSERVANCY", "S&CC",
				"GIRO", "AXS", "SAM", "GOVERNMENT", "IRAS", "CPF", "HDB",
				"INSURANCE", "POLICY", "PREMIUM", "BILL PAYMENT",
			},
			"Entertainment": {
				"NETFLIX", "DISNEY PLUS", "AMAZON PRIME", "SPOTIFY", "APPLE MUSIC",
				"YOUTUBE PREMIUM", "HBO", "VIKI", "STEAM", "PLAYSTATION", "XBOX",
				"CINEMA", "CATHAY", "GOLDEN VILLAGE", "SHAW", "MOVIE", "FILM",
				"SENTOSA", "USS", "ZOO", "BIRD PARK", "GARDENS BY THE BAY",
				"ART SCIENCE MUSEUM", "NATIONAL MUSEUM", "ENTERTAINMENT",
				"GAMING", "ARCADE", "BOWLING", "KTV", "KARAOKE",
			},
			"Healthcare": {
				"CLINIC", "POLYCLINIC", "HOSPITAL", "SGH", "NUH", "TTSH", "CGH",
				"MEDICAL", "DOCTOR", "DENTIST", "DENTAL", "PHARMACY", "GUARDIAN",
				"WATSONS", "UNITY", "MEDICINE", "PRESCRIPTION", "HEALTH",
				"PHYSIOTHERAPY", "SPECIALIST", "CONSULTATION", "TREATMENT",
				"INSURANCE MEDICAL", "MEDISAVE",
			},
			CategorySalary: {
				"SALARY", "PAYROLL", "WAGES", "PAY", "EMPLOYER", "CPF BOARD",
				"BONUS", "ALLOWANCE", "COMMISSION", "OVERTIME",
			},
			CategoryInvestment: {
				"DIVIDEND", "INTEREST", "INVESTMENT", "STOCK", "BOND", "UNIT TRUST",
				"ROBO ADVISOR", "TRADING", "BROKERAGE", "DBS VICKERS", "POEMS",
				"TIGER BROKERS", "MOOMOO", "SYFE", "STASHAWAY", "ENDOWUS",
			},
			"Education": {
				"SCHOOL", "UNIVERSITY", "COLLEGE", "TUITION", "COURSE", "TRAINING",
				"UDEMY", "COURSERA", "SKILLSFUTURE", "BOOK", "STATIONERY",
				"POPULAR BOOKSTORE", "TIMES", "EDUCATION", "LEARNING",
			},
			"Personal Care": {
				"SALON", "BARBER", "HAIR", "NAIL", "MASSAGE", "SPA", "FACIAL",
				"BEAUTY", "COSMETICS", "SEPHORA", "MAKEUP", "SKINCARE",
				"PERFUME", "PERSONAL CARE", "HYGIENE",
			},
		},
		Bands: []AmountBand{
			{UpTo: decimal.NewFromInt(5), Category: "Transport"},
			{UpTo: decimal.NewFromInt(20), Category: "Food & Dining"},
			{UpTo: decimal.NewFromInt(100), Category: "Groceries"},
			{UpTo: decimal.NewFromInt(500), Category: "Shopping"},
		},
		TopBand:   "Bills & Utilities",
		Threshold: 0.5,
	}
}

// categoryDefaults is the icon/color pair assigned when the categorizer
// has to create a system category itself.
var categoryDefaults = map[string][2]string{
	"Food & Drinks":       {"utensils", "#E74C3C"},
	"Food & Dining":       {"utensils", "#E74C3C"},
	"Groceries":           {"shopping-basket", "#27AE60"},
	"Transport":           {"bus", "#2980B9"},
	"Shopping":            {"shopping-bag", "#8E44AD"},
	"Bills & Utilities":   {"file-invoice", "#F39C12"},
	"Entertainment":       {"film", "#D35400"},
	"Healthcare":          {"heartbeat", "#C0392B"},
	CategorySalary:        {"money-bill", "#16A085"},
	CategoryInvestment:    {"chart-line", "#2C3E50"},
	"Education":           {"graduation-cap", "#2962FF"},
	"Personal Care":       {"spa", "#E91E63"},
	CategoryOtherIncome:   {"coins", "#16A085"},
	CategoryUncategorised: {"question", "#7F8C8D"},
}

// DefaultAppearance returns the icon and color for a category name,
// with a neutral fallback for unknown names.
func DefaultAppearance(name string) (icon, color string) {
	if d, ok := categoryDefaults[name]; ok {
		return d[0], d[1]
	}
	return "tag", "#95A5A6"
}
