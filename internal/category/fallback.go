// internal/category/fallback.go
//
// Curated item lists used when an upstream lookup is unavailable. Keeping a
// playable subset per category matters more than completeness.
package category

var fallbackLanguages = []string{
	"Python", "JavaScript", "Java", "C++", "C#", "PHP", "Ruby", "Go", "Rust", "Swift",
	"Kotlin", "TypeScript", "Scala", "R", "MATLAB", "Perl", "Haskell", "Clojure",
	"Erlang", "Elixir", "Dart", "Julia", "Lua", "Assembly", "COBOL", "Fortran",
	"Pascal", "Ada", "Lisp", "Prolog", "Smalltalk", "Objective-C", "Visual Basic",
}

var fallbackCountries = []string{
	"United States", "Canada", "Mexico", "Brazil", "Argentina", "Chile", "Peru",
	"United Kingdom", "France", "Germany", "Italy", "Spain", "Portugal", "Netherlands",
	"Belgium", "Switzerland", "Austria", "Sweden", "Norway", "Denmark", "Finland",
	"Russia", "China", "Japan", "South Korea", "India", "Australia", "New Zealand",
	"South Africa", "Egypt", "Nigeria", "Kenya", "Morocco", "Tunisia", "Algeria",
}

var fallbackAnimals = []string{
	"Lion", "Tiger", "Elephant", "Giraffe", "Zebra", "Monkey", "Bear", "Wolf",
	"Fox", "Deer", "Rabbit", "Squirrel", "Cat", "Dog", "Horse", "Cow", "Pig",
	"Sheep", "Goat", "Chicken", "Duck", "Eagle", "Owl", "Parrot", "Penguin",
	"Dolphin", "Whale", "Shark", "Octopus", "Jellyfish", "Butterfly", "Bee",
	"Spider", "Snake", "Lizard", "Frog", "Turtle", "Crocodile", "Alligator",
}

// fruits has no upstream API; the static list is authoritative.
var fruitItems = []string{
	"Apple", "Apricot", "Avocado", "Banana", "Blackberry", "Blueberry", "Cantaloupe",
	"Cherry", "Coconut", "Cranberry", "Date", "Dragonfruit", "Durian", "Fig",
	"Grape", "Grapefruit", "Guava", "Honeydew", "Jackfruit", "Kiwi", "Kumquat",
	"Lemon", "Lime", "Lychee", "Mango", "Nectarine", "Orange", "Papaya",
	"Passionfruit", "Peach", "Pear", "Persimmon", "Pineapple", "Plum",
	"Pomegranate", "Raspberry", "Starfruit", "Strawberry", "Tangerine", "Watermelon",
}
