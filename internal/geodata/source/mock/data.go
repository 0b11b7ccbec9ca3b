package mock

import "urbanclear/internal/geodata/models"

// knownLocation is a pattern-matched geocoding answer.
type knownLocation struct {
	lat     float64
	lon     float64
	address string
	country string
	city    string
	street  string
}

// Landmarks resolved by substring match before falling back to a derived
// point. Keys are lower-cased.
var knownLocations = map[string]knownLocation{
	"times square": {
		lat: 40.7580, lon: -73.9855,
		address: "Times Square, New York, NY, USA",
		country: "United States", city: "New York", street: "Times Square",
	},
	"golden gate bridge": {
		lat: 37.8199, lon: -122.4783,
		address: "Golden Gate Bridge, San Francisco, CA, USA",
		country: "United States", city: "San Francisco", street: "Golden Gate Bridge",
	},
	"1600 pennsylvania avenue": {
		lat: 38.8977, lon: -77.0365,
		address: "1600 Pennsylvania Avenue NW, Washington, DC, USA",
		country: "United States", city: "Washington", street: "1600 Pennsylvania Avenue NW",
	},
	"empire state building": {
		lat: 40.7484, lon: -73.9857,
		address: "Empire State Building, New York, NY, USA",
		country: "United States", city: "New York", street: "350 5th Avenue",
	},
	"brooklyn bridge": {
		lat: 40.7061, lon: -73.9969,
		address: "Brooklyn Bridge, New York, NY, USA",
		country: "United States", city: "New York", street: "Brooklyn Bridge",
	},
	"central park": {
		lat: 40.7812, lon: -73.9665,
		address: "Central Park, New York, NY, USA",
		country: "United States", city: "New York", street: "Central Park",
	},
}

// Anchor for addresses no pattern matches: a derived point near midtown
// Manhattan.
var fallbackAnchor = models.LatLon{Lat: 40.7589, Lon: -73.9851}

// placeTemplate seeds a synthetic place search hit.
type placeTemplate struct {
	name       string
	categories []string
}

// Synthetic places keyed by query category. Order matters: it fixes the
// deterministic selection when no category matches.
var placeCategories = []string{"coffee", "restaurant", "gas", "hotel", "bank", "store"}

var placesDB = map[string][]placeTemplate{
	"coffee": {
		{"Starbucks Coffee", []string{"coffee", "cafe"}},
		{"Local Coffee Roasters", []string{"coffee", "cafe", "local"}},
		{"The Daily Grind", []string{"coffee", "cafe", "breakfast"}},
		{"Blue Bottle Coffee", []string{"coffee", "specialty"}},
		{"Corner Cafe", []string{"coffee", "cafe", "quick"}},
	},
	"restaurant": {
		{"Tony's Italian Kitchen", []string{"restaurant", "italian"}},
		{"Burger Palace", []string{"restaurant", "american", "fast food"}},
		{"Sushi Zen", []string{"restaurant", "japanese", "sushi"}},
		{"The Green Table", []string{"restaurant", "healthy", "vegetarian"}},
		{"Pizza Corner", []string{"restaurant", "pizza", "italian"}},
	},
	"gas": {
		{"Shell Gas Station", []string{"gas station", "fuel"}},
		{"BP Service Station", []string{"gas station", "fuel", "convenience"}},
		{"Chevron", []string{"gas station", "fuel"}},
		{"ExxonMobil", []string{"gas station", "fuel", "convenience"}},
		{"Local Fuel Stop", []string{"gas station", "fuel", "local"}},
	},
	"hotel": {
		{"Grand Hotel", []string{"hotel", "luxury"}},
		{"Budget Inn", []string{"hotel", "budget"}},
		{"Business Suites", []string{"hotel", "business"}},
		{"Cozy B&B", []string{"hotel", "bed and breakfast"}},
		{"Downtown Lodge", []string{"hotel", "urban"}},
	},
	"bank": {
		{"First National Bank", []string{"bank", "atm"}},
		{"City Credit Union", []string{"bank", "credit union"}},
		{"Chase Bank", []string{"bank", "atm", "financial"}},
		{"Community Bank", []string{"bank", "local"}},
		{"Wells Fargo", []string{"bank", "atm", "financial"}},
	},
	"store": {
		{"SuperMart", []string{"store", "grocery", "supermarket"}},
		{"Corner Store", []string{"store", "convenience"}},
		{"Electronics Plus", []string{"store", "electronics"}},
		{"Fashion Boutique", []string{"store", "clothing", "fashion"}},
		{"Hardware Store", []string{"store", "hardware", "tools"}},
	},
}
