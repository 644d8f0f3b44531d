package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	intconfig "storefront/internal/config"
	intdb "storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/domain/models"
)

const routeTable = "booking_routes"

// RouteRepository reads the route/product catalog from booking_routes.
// Rows with active=0 are hidden when the column exists.
type RouteRepository struct {
	DB *sql.DB
}

func (r RouteRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r RouteRepository) EnsureTable() error {
	db := r.db()
	if db == nil {
		return errors.New("route repository: no database")
	}
	if intdb.HasTable(db, routeTable) {
		return nil
	}
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ` + routeTable + ` (
			id                          VARCHAR(64)   NOT NULL,
			product                     VARCHAR(16)   NOT NULL,
			name                        VARCHAR(191)  NOT NULL,
			origin                      VARCHAR(191)  NULL,
			destination                 VARCHAR(191)  NULL,
			base_price                  DECIMAL(12,2) NOT NULL DEFAULT 0,
			currency                    VARCHAR(8)    NOT NULL DEFAULT 'EUR',
			vehicles                    JSON          NULL,
			time_surcharge_enabled      TINYINT(1)    NOT NULL DEFAULT 0,
			round_trip_discount_enabled TINYINT(1)    NOT NULL DEFAULT 0,
			round_trip_discount_percent DECIMAL(5,2)  NOT NULL DEFAULT 0,
			active                      TINYINT(1)    NOT NULL DEFAULT 1,
			PRIMARY KEY (product, id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`)
	if err != nil {
		return fmt.Errorf("create %s: %w", routeTable, err)
	}
	return nil
}

const routeColumns = `
	id,
	product,
	COALESCE(name,''),
	COALESCE(origin,''),
	COALESCE(destination,''),
	COALESCE(base_price,0),
	COALESCE(currency,''),
	COALESCE(vehicles,''),
	COALESCE(time_surcharge_enabled,0),
	COALESCE(round_trip_discount_enabled,0),
	COALESCE(round_trip_discount_percent,0)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoute(row rowScanner) (models.RouteSelection, error) {
	var (
		rt              models.RouteSelection
		product         string
		vehicles        string
		surcharge, disc int
	)
	if err := row.Scan(
		&rt.ID,
		&product,
		&rt.Name,
		&rt.Origin,
		&rt.Destination,
		&rt.BasePrice,
		&rt.Currency,
		&vehicles,
		&surcharge,
		&disc,
		&rt.RoundTripDiscountPercent,
	); err != nil {
		return models.RouteSelection{}, err
	}
	rt.Product = models.Product(product)
	rt.TimeSurchargeEnabled = surcharge != 0
	rt.RoundTripDiscountEnabled = disc != 0
	if v := strings.TrimSpace(vehicles); v != "" {
		if err := json.Unmarshal([]byte(v), &rt.Vehicles); err != nil {
			return models.RouteSelection{}, fmt.Errorf("route %s vehicles: %w", rt.ID, err)
		}
	}
	return rt, nil
}

func (r RouteRepository) activeFilter(db *sql.DB) string {
	if intdb.HasColumn(db, routeTable, "active") {
		return " AND COALESCE(active,1)=1"
	}
	return ""
}

// Route returns one catalog entry, or domain.NotFoundError.
func (r RouteRepository) Route(product models.Product, id string) (models.RouteSelection, error) {
	db := r.db()
	if db == nil {
		return models.RouteSelection{}, domain.InternalError{Msg: "route catalog unavailable"}
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return models.RouteSelection{}, domain.NotFoundError{Resource: "route"}
	}
	row := db.QueryRow(`SELECT `+routeColumns+` FROM `+routeTable+` WHERE product=? AND id=?`+r.activeFilter(db)+` LIMIT 1`, string(product), id)
	rt, err := scanRoute(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RouteSelection{}, domain.NotFoundError{Resource: "route", Err: err}
	}
	if err != nil {
		return models.RouteSelection{}, domain.InternalError{Msg: "failed to load route", Err: err}
	}
	return rt, nil
}

// List returns every active entry of product ordered by name.
func (r RouteRepository) List(product models.Product) ([]models.RouteSelection, error) {
	db := r.db()
	if db == nil {
		return nil, domain.InternalError{Msg: "route catalog unavailable"}
	}
	rows, err := db.Query(`SELECT `+routeColumns+` FROM `+routeTable+` WHERE product=?`+r.activeFilter(db)+` ORDER BY name ASC`, string(product))
	if err != nil {
		return nil, domain.InternalError{Msg: "failed to list routes", Err: err}
	}
	defer rows.Close()

	out := []models.RouteSelection{}
	for rows.Next() {
		rt, err := scanRoute(rows)
		if err != nil {
			return nil, domain.InternalError{Msg: "failed to read route", Err: err}
		}
		out = append(out, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.InternalError{Msg: "failed to list routes", Err: err}
	}
	return out, nil
}

// MemoryRouteCatalog is the in-process catalog used without a database.
type MemoryRouteCatalog struct {
	mu     sync.RWMutex
	routes map[models.Product]map[string]models.RouteSelection
}

func NewMemoryRouteCatalog(routes ...models.RouteSelection) *MemoryRouteCatalog {
	c := &MemoryRouteCatalog{routes: map[models.Product]map[string]models.RouteSelection{}}
	for _, rt := range routes {
		c.Put(rt)
	}
	return c
}

// Put adds or replaces rt.
func (c *MemoryRouteCatalog) Put(rt models.RouteSelection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.routes[rt.Product] == nil {
		c.routes[rt.Product] = map[string]models.RouteSelection{}
	}
	rt.Vehicles = append([]models.VehicleOption(nil), rt.Vehicles...)
	c.routes[rt.Product][rt.ID] = rt
}

// Remove withdraws a route from the catalog.
func (c *MemoryRouteCatalog) Remove(product models.Product, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.routes[product], id)
}

func (c *MemoryRouteCatalog) Route(product models.Product, id string) (models.RouteSelection, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rt, ok := c.routes[product][strings.TrimSpace(id)]
	if !ok {
		return models.RouteSelection{}, domain.NotFoundError{Resource: "route"}
	}
	rt.Vehicles = append([]models.VehicleOption(nil), rt.Vehicles...)
	return rt, nil
}

func (c *MemoryRouteCatalog) List(product models.Product) ([]models.RouteSelection, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.RouteSelection, 0, len(c.routes[product]))
	for _, rt := range c.routes[product] {
		rt.Vehicles = append([]models.VehicleOption(nil), rt.Vehicles...)
		out = append(out, rt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SeedRoutes is the demo catalog served when no database is configured.
func SeedRoutes() []models.RouteSelection {
	transferVehicles := []models.VehicleOption{
		{ID: "sedan", Name: "Sedan", Capacity: 3},
		{ID: "van", Name: "Van", Capacity: 7, BasePrice: 140},
		{ID: "minibus", Name: "Minibus", Capacity: 16, BasePrice: 220},
	}
	return []models.RouteSelection{
		{
			ID: "airport-city", Product: models.ProductTransfer, Name: "Airport to City Centre",
			Origin: "Airport", Destination: "City Centre", BasePrice: 100, Currency: "EUR",
			Vehicles:                 transferVehicles,
			TimeSurchargeEnabled:     true,
			RoundTripDiscountEnabled: true,
			RoundTripDiscountPercent: 10,
		},
		{
			ID: "city-port", Product: models.ProductTransfer, Name: "City Centre to Cruise Port",
			Origin: "City Centre", Destination: "Cruise Port", BasePrice: 60, Currency: "EUR",
			Vehicles:             transferVehicles,
			TimeSurchargeEnabled: true,
		},
		{
			ID: "old-town-walk", Product: models.ProductTour, Name: "Old Town Walking Tour",
			BasePrice: 35, Currency: "EUR",
			Vehicles: []models.VehicleOption{
				{ID: "standard", Name: "Standard group"},
				{ID: "private", Name: "Private guide", BasePrice: 120},
			},
		},
		{
			ID: "harbour-jazz", Product: models.ProductEvent, Name: "Harbour Jazz Night",
			BasePrice: 45, Currency: "EUR",
			Vehicles: []models.VehicleOption{
				{ID: "general", Name: "General admission"},
				{ID: "vip", Name: "VIP", BasePrice: 90},
			},
		},
	}
}
