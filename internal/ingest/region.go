package ingest

import "strconv"

// prefixRange assigns a region to codes whose first three digits fall in
// [from, to].
type prefixRange struct {
	from, to int
	region   string
}

// prefixRegions groups three-digit code prefixes by the region their sectional
// center facility serves. It is a mail-routing grouping, so a code near a
// border can carry the neighbouring region, and shared Pacific prefixes map
// to the dominant territory.
var prefixRegions = []prefixRange{
	{5, 5, "NY"},
	{6, 7, "PR"}, {8, 8, "VI"}, {9, 9, "PR"},
	{10, 27, "MA"}, {28, 29, "RI"}, {30, 38, "NH"}, {39, 49, "ME"},
	{50, 54, "VT"}, {55, 55, "MA"}, {56, 59, "VT"},
	{60, 69, "CT"}, {70, 89, "NJ"},
	{100, 149, "NY"}, {150, 196, "PA"}, {197, 199, "DE"},
	{200, 200, "DC"}, {201, 201, "VA"}, {202, 205, "DC"}, {206, 219, "MD"},
	{220, 246, "VA"}, {247, 268, "WV"}, {270, 289, "NC"}, {290, 299, "SC"},
	{300, 319, "GA"}, {320, 339, "FL"}, {341, 349, "FL"},
	{350, 369, "AL"}, {370, 385, "TN"}, {386, 397, "MS"}, {398, 399, "GA"},
	{400, 427, "KY"}, {430, 459, "OH"}, {460, 479, "IN"}, {480, 499, "MI"},
	{500, 528, "IA"}, {530, 549, "WI"}, {550, 567, "MN"}, {569, 569, "DC"},
	{570, 577, "SD"}, {580, 588, "ND"}, {590, 599, "MT"},
	{600, 629, "IL"}, {630, 658, "MO"}, {660, 679, "KS"}, {680, 693, "NE"},
	{700, 715, "LA"}, {716, 729, "AR"},
	{730, 732, "OK"}, {733, 733, "TX"}, {734, 749, "OK"}, {750, 799, "TX"},
	{800, 816, "CO"}, {820, 831, "WY"}, {832, 838, "ID"}, {840, 847, "UT"},
	{850, 865, "AZ"}, {870, 884, "NM"}, {885, 885, "TX"}, {889, 898, "NV"},
	{900, 961, "CA"}, {967, 968, "HI"}, {969, 969, "GU"},
	{970, 979, "OR"}, {980, 994, "WA"}, {995, 999, "AK"},
}

// exactRegions overrides the prefix table for codes inside a shared prefix.
var exactRegions = map[string]string{
	"96799": "AS",
	"96950": "MP", "96951": "MP", "96952": "MP",
}

// RegionForCode returns the regional grouping for a five-digit code.
func RegionForCode(code string) (string, bool) {
	if r, ok := exactRegions[code]; ok {
		return r, true
	}
	if len(code) < 3 {
		return "", false
	}
	p, err := strconv.Atoi(code[:3])
	if err != nil {
		return "", false
	}
	for _, pr := range prefixRegions {
		if p >= pr.from && p <= pr.to {
			return pr.region, true
		}
	}
	return "", false
}
