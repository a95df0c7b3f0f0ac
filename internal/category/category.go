// Package category guesses a spending category from an item's name so
// purchase totals can be grouped without anyone tagging items by hand.
package category

import "strings"

const Other = "Other"

// Guess returns the spending category for the given item name. Matching
// is case-insensitive substring search over an ordered keyword table;
// the first hit wins. Unrecognized names fall back to Other.
func Guess(itemName string) string {
	name := strings.ToLower(strings.TrimSpace(itemName))
	if name == "" {
		return Other
	}
	for _, entry := range keywords {
		if strings.Contains(name, entry.keyword) {
			return entry.category
		}
	}
	return Other
}

type keywordEntry struct {
	keyword  string
	category string
}

// Order matters: specific phrases and strong signals come before the
// generic words they contain, so "dish soap" stays Household instead of
// matching Personal Care's "soap", "tinned tomatoes" lands in Pantry
// before "tomato" can claim it, and "coffee beans" resolves as a drink
// rather than a bean.
var keywords = []keywordEntry{
	// Household supplies
	{"laundry detergent", "Household"},
	{"washing up liquid", "Household"},
	{"paper towel", "Household"},
	{"toilet paper", "Household"},
	{"toilet roll", "Household"},
	{"kitchen roll", "Household"},
	{"trash bag", "Household"},
	{"bin bag", "Household"},
	{"bin liner", "Household"},
	{"dish soap", "Household"},
	{"dishwasher", "Household"},
	{"light bulb", "Household"},
	{"detergent", "Household"},
	{"cleaner", "Household"},
	{"cleaning", "Household"},
	{"sponge", "Household"},
	{"bleach", "Household"},
	{"foil", "Household"},
	{"cling film", "Household"},
	{"battery", "Household"},
	{"batteries", "Household"},

	// Personal care
	{"toothpaste", "Personal Care"},
	{"toothbrush", "Personal Care"},
	{"shampoo", "Personal Care"},
	{"conditioner", "Personal Care"},
	{"body wash", "Personal Care"},
	{"deodorant", "Personal Care"},
	{"sunscreen", "Personal Care"},
	{"lotion", "Personal Care"},
	{"razor", "Personal Care"},
	{"tissue", "Personal Care"},
	{"plaster", "Personal Care"},
	{"soap", "Personal Care"},

	// Pet
	{"cat litter", "Pet"},
	{"cat food", "Pet"},
	{"dog food", "Pet"},
	{"pet food", "Pet"},
	{"bird seed", "Pet"},

	// Packaging beats the contents: anything tinned or canned shelves
	// in the pantry.
	{"tinned", "Pantry"},
	{"canned", "Pantry"},
	{"peanut butter", "Pantry"},

	// Frozen, ahead of Dairy so ice cream stays out of the fridge
	{"ice cream", "Frozen"},
	{"frozen", "Frozen"},

	// Dairy
	{"almond milk", "Dairy"},
	{"oat milk", "Dairy"},
	{"greek yogurt", "Dairy"},
	{"cream cheese", "Dairy"},
	{"sour cream", "Dairy"},
	{"double cream", "Dairy"},
	{"yogurt", "Dairy"},
	{"yoghurt", "Dairy"},
	{"cheese", "Dairy"},
	{"milk", "Dairy"},
	{"butter", "Dairy"},
	{"cream", "Dairy"},
	{"egg", "Dairy"},

	// Drinks, ahead of Produce and Pantry for juice and coffee beans
	{"sparkling water", "Drinks"},
	{"orange juice", "Drinks"},
	{"apple juice", "Drinks"},
	{"coffee", "Drinks"},
	{"tea", "Drinks"},
	{"juice", "Drinks"},
	{"squash", "Drinks"},
	{"soda", "Drinks"},
	{"beer", "Drinks"},
	{"wine", "Drinks"},
	{"water", "Drinks"},

	// Produce
	{"sweet potato", "Produce"},
	{"bell pepper", "Produce"},
	{"spring onion", "Produce"},
	{"salad", "Produce"},
	{"lettuce", "Produce"},
	{"spinach", "Produce"},
	{"tomato", "Produce"},
	{"potato", "Produce"},
	{"onion", "Produce"},
	{"garlic", "Produce"},
	{"carrot", "Produce"},
	{"pepper", "Produce"},
	{"cucumber", "Produce"},
	{"broccoli", "Produce"},
	{"mushroom", "Produce"},
	{"banana", "Produce"},
	{"apple", "Produce"},
	{"orange", "Produce"},
	{"lemon", "Produce"},
	{"berries", "Produce"},
	{"berry", "Produce"},
	{"grape", "Produce"},
	{"fruit", "Produce"},
	{"veg", "Produce"},

	// Bakery
	{"sourdough", "Bakery"},
	{"baguette", "Bakery"},
	{"bread", "Bakery"},
	{"bagel", "Bakery"},
	{"tortilla", "Bakery"},
	{"croissant", "Bakery"},
	{"muffin", "Bakery"},
	{"roll", "Bakery"},
	{"bun", "Bakery"},

	// Meat and fish
	{"chicken", "Meat & Fish"},
	{"beef", "Meat & Fish"},
	{"pork", "Meat & Fish"},
	{"bacon", "Meat & Fish"},
	{"sausage", "Meat & Fish"},
	{"mince", "Meat & Fish"},
	{"turkey", "Meat & Fish"},
	{"salmon", "Meat & Fish"},
	{"tuna", "Meat & Fish"},
	{"fish", "Meat & Fish"},
	{"prawn", "Meat & Fish"},

	// Pantry
	{"olive oil", "Pantry"},
	{"soy sauce", "Pantry"},
	{"pasta sauce", "Pantry"},
	{"baked beans", "Pantry"},
	{"cereal", "Pantry"},
	{"porridge", "Pantry"},
	{"oats", "Pantry"},
	{"rice", "Pantry"},
	{"pasta", "Pantry"},
	{"noodle", "Pantry"},
	{"flour", "Pantry"},
	{"sugar", "Pantry"},
	{"honey", "Pantry"},
	{"spice", "Pantry"},
	{"stock", "Pantry"},
	{"soup", "Pantry"},
	{"sauce", "Pantry"},
	{"bean", "Pantry"},
	{"lentil", "Pantry"},
	{"oil", "Pantry"},

	// Snacks
	{"granola bar", "Snacks"},
	{"chocolate", "Snacks"},
	{"biscuit", "Snacks"},
	{"cracker", "Snacks"},
	{"cookie", "Snacks"},
	{"crisps", "Snacks"},
	{"chips", "Snacks"},
	{"popcorn", "Snacks"},
	{"pretzel", "Snacks"},
	{"candy", "Snacks"},
	{"sweets", "Snacks"},
	{"snack", "Snacks"},
}
