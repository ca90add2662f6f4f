package domain

// Kind discriminates the two destination shapes.
type Kind string

const (
	KindCategory Kind = "category"
	KindLeaf     Kind = "leaf"
)

// Destination is either a *Category (an aggregate such as a country listing
// its cities) or a *Leaf (a place with its own accessibility details).
type Destination interface {
	Info() Summary
	Kind() Kind
	isDestination()
}

// Summary holds the fields every destination carries.
type Summary struct {
	ID          int      `json:"id"`
	Country     string   `json:"name"`
	City        string   `json:"city"`
	Rating      float64  `json:"rating,omitempty"` // 0 = unrated, otherwise 1..5
	Description string   `json:"description"`
	Highlights  []string `json:"highlights,omitempty"`
}

type Category struct {
	Summary
	Cities []*Leaf `json:"cities"`
}

func (c *Category) Info() Summary { return c.Summary }
func (c *Category) Kind() Kind    { return KindCategory }
func (*Category) isDestination()  {}

type Leaf struct {
	Summary
	Details
}

func (l *Leaf) Info() Summary { return l.Summary }
func (l *Leaf) Kind() Kind    { return KindLeaf }
func (*Leaf) isDestination()  {}

type Details struct {
	EmergencyNumbers   []EmergencyNumber   `json:"emergencyNumbers"`
	Attractions        []Attraction        `json:"attractions"`
	Hotels             []Hotel             `json:"hotels"`
	WheelchairServices []WheelchairService `json:"wheelchairServices"`
	QuickTips          []QuickTip          `json:"quickTips"`
	TopDining          []Restaurant        `json:"topDining,omitempty"`
	StateFeatures      []StateFeature      `json:"stateFeatures,omitempty"`
}

type EmergencyNumber struct {
	Service     string `json:"service"`
	Number      string `json:"number"`
	Description string `json:"description"`
}

type Attraction struct {
	Name       string     `json:"name"`
	URL        string     `json:"url"`
	Rating     float64    `json:"rating"`
	BookingURL string     `json:"bookingUrl,omitempty"`
	Discounts  []Discount `json:"discounts,omitempty"`
}

type Discount struct {
	Provider    string `json:"provider"`
	Description string `json:"description"`
	URL         string `json:"url,omitempty"`
}

// Hotel is a curated accessible hotel from the static data set.
type Hotel struct {
	Name           string   `json:"name"`
	Rating         float64  `json:"rating"`
	Features       []string `json:"features"`
	ReservationURL string   `json:"reservationUrl"`
}

type ServiceType string

const (
	ServiceRepair   ServiceType = "repair"
	ServicePurchase ServiceType = "purchase"
	ServiceBoth     ServiceType = "both"
)

func (t ServiceType) Valid() bool {
	switch t {
	case ServiceRepair, ServicePurchase, ServiceBoth:
		return true
	}
	return false
}

type WheelchairService struct {
	Name        string      `json:"name"`
	Type        ServiceType `json:"type"`
	Address     string      `json:"address"`
	Phone       string      `json:"phone,omitempty"`
	Website     string      `json:"website,omitempty"`
	Description string      `json:"description"`
}

type QuickTip struct {
	Text string `json:"text"`
	Link string `json:"link,omitempty"`
}

type Restaurant struct {
	Name     string   `json:"name"`
	Cuisine  string   `json:"cuisine"`
	Rating   float64  `json:"rating"`
	Features []string `json:"features,omitempty"`
	URL      string   `json:"url,omitempty"`
}

// StateFeature is a per-state (or per-region) breakdown inside a large leaf.
type StateFeature struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Highlights  []string     `json:"highlights,omitempty"`
	Attractions []Attraction `json:"attractions,omitempty"`
}
