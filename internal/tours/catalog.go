package tours

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed tours.yaml
var defaultCatalog []byte

type DepositKind string

const (
	DepositFixed   DepositKind = "fixed"
	DepositPercent DepositKind = "percent"
)

type DepositRule struct {
	Kind  DepositKind `yaml:"kind" json:"kind"`
	Value int64       `yaml:"value" json:"value"` // cents for fixed, whole percent for percent
}

type Tour struct {
	ID                      string      `yaml:"id" json:"id"`
	Name                    string      `yaml:"name" json:"name"`
	Days                    int         `yaml:"days" json:"days"`
	MaxTravelers            int         `yaml:"max_travelers" json:"maxTravelers"`
	BasePriceCents          int64       `yaml:"base_price_cents" json:"basePriceCents"`
	Deposit                 DepositRule `yaml:"deposit" json:"deposit"`
	ExtensionPerDayCents    int64       `yaml:"extension_per_day_cents" json:"extensionPerDayCents"`
	InsuranceCents          int64       `yaml:"insurance_cents" json:"insuranceCents"`
	SingleSupplementCents   int64       `yaml:"single_supplement_cents" json:"singleSupplementCents"`
	PrivateSurchargePercent int64       `yaml:"private_surcharge_percent" json:"privateSurchargePercent"`
}

type Catalog struct {
	Currency string
	tours    map[string]Tour
}

type catalogFile struct {
	Currency string `yaml:"currency"`
	Tours    []Tour `yaml:"tours"`
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse tour catalog: %w", err)
	}

	c := &Catalog{Currency: strings.ToLower(file.Currency), tours: make(map[string]Tour, len(file.Tours))}
	if c.Currency == "" {
		return nil, fmt.Errorf("tour catalog: currency is required")
	}
	for _, t := range file.Tours {
		if err := t.validate(); err != nil {
			return nil, fmt.Errorf("tour catalog: %s: %w", t.ID, err)
		}
		if _, dup := c.tours[t.ID]; dup {
			return nil, fmt.Errorf("tour catalog: duplicate tour id %q", t.ID)
		}
		c.tours[t.ID] = t
	}
	return c, nil
}

func (t Tour) validate() error {
	switch {
	case t.ID == "":
		return fmt.Errorf("id is required")
	case t.BasePriceCents <= 0:
		return fmt.Errorf("base price must be positive")
	case t.MaxTravelers <= 0:
		return fmt.Errorf("max travelers must be positive")
	case t.Deposit.Value <= 0:
		return fmt.Errorf("deposit value must be positive")
	case t.Deposit.Kind == DepositPercent && t.Deposit.Value > 100:
		return fmt.Errorf("deposit percent above 100")
	case t.Deposit.Kind != DepositPercent && t.Deposit.Kind != DepositFixed:
		return fmt.Errorf("unknown deposit kind %q", t.Deposit.Kind)
	}
	return nil
}

func (c *Catalog) Get(id string) (Tour, bool) {
	t, ok := c.tours[id]
	return t, ok
}

func (c *Catalog) List() []Tour {
	out := make([]Tour, 0, len(c.tours))
	for _, t := range c.tours {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TourName falls back to the id for tours missing from the catalog.
func (c *Catalog) TourName(id string) string {
	if t, ok := c.tours[id]; ok && t.Name != "" {
		return t.Name
	}
	return id
}
