package domain

// BuildingLabel names one of the campus buildings the classifier knows about.
type BuildingLabel string

const (
	Library     BuildingLabel = "Library"
	CSBuilding  BuildingLabel = "CS_Building"
	Civil       BuildingLabel = "Civil"
	EnM         BuildingLabel = "EnM"
	NewBuilding BuildingLabel = "New_Building"
	AdminBlock  BuildingLabel = "Admin_Block"
)

// BuildingInfo is the static record for one building.
type BuildingInfo struct {
	Label    BuildingLabel `json:"label"`
	HeightM  float64       `json:"height_m"`
	Location GeoPoint      `json:"location"`
}

// FallbackLocation is returned for a label that is not in the catalog.
// Reaching it means the classifier and the catalog disagree.
var FallbackLocation = GeoPoint{Lat: 40.0, Lon: -73.0}

// catalog is ordered: index i is the classifier's output index i.
// Labels, heights and coordinates live in one table so they cannot drift apart.
var catalog = [...]BuildingInfo{
	{Label: Library, HeightM: 6.0, Location: GeoPoint{Lat: 31.481559857421292, Lon: 74.30378519760922}},
	{Label: CSBuilding, HeightM: 7.5, Location: GeoPoint{Lat: 31.481178398975324, Lon: 74.30288072461302}},
	{Label: Civil, HeightM: 9.0, Location: GeoPoint{Lat: 31.481982241525063, Lon: 74.30366007617641}},
	{Label: EnM, HeightM: 7.5, Location: GeoPoint{Lat: 31.48107824241253, Lon: 74.30332310850635}},
	{Label: NewBuilding, HeightM: 13.5, Location: GeoPoint{Lat: 31.4805443557776, Lon: 74.30417136303642}},
	{Label: AdminBlock, HeightM: 6.0, Location: GeoPoint{Lat: 31.481067391919904, Lon: 74.3030048329072}},
}

// Catalog is the read-only building lookup table.
type Catalog struct {
	entries []BuildingInfo
	byLabel map[BuildingLabel]int
}

// NewCatalog builds the catalog from the campus table.
func NewCatalog() *Catalog {
	return newCatalog(catalog[:])
}

func newCatalog(entries []BuildingInfo) *Catalog {
	c := &Catalog{
		entries: make([]BuildingInfo, len(entries)),
		byLabel: make(map[BuildingLabel]int, len(entries)),
	}
	copy(c.entries, entries)
	for i, e := range c.entries {
		c.byLabel[e.Label] = i
	}
	return c
}

// Len returns the number of buildings, which is also the length of the
// score vector the classifier must produce.
func (c *Catalog) Len() int { return len(c.entries) }

// At returns the entry for classifier output index i.
func (c *Catalog) At(i int) (BuildingInfo, bool) {
	if i < 0 || i >= len(c.entries) {
		return BuildingInfo{}, false
	}
	return c.entries[i], true
}

// Lookup returns the entry for a label.
func (c *Catalog) Lookup(label BuildingLabel) (BuildingInfo, bool) {
	i, ok := c.byLabel[label]
	if !ok {
		return BuildingInfo{}, false
	}
	return c.entries[i], true
}

// All returns a copy of every entry in classifier order.
func (c *Catalog) All() []BuildingInfo {
	out := make([]BuildingInfo, len(c.entries))
	copy(out, c.entries)
	return out
}

// Labels returns the labels in classifier order.
func (c *Catalog) Labels() []BuildingLabel {
	out := make([]BuildingLabel, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Label
	}
	return out
}
