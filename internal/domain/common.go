package domain

// Coordinate - географическая координата (широта/долгота, WGS84)
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BoundingBox - прямоугольная область карты
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// NewBoundingBox создает вырожденный bbox из одной точки
func NewBoundingBox(c Coordinate) BoundingBox {
	return BoundingBox{
		MinLat: c.Lat,
		MinLon: c.Lon,
		MaxLat: c.Lat,
		MaxLon: c.Lon,
	}
}

// Extend расширяет bbox так, чтобы он покрывал точку
func (b *BoundingBox) Extend(c Coordinate) {
	if c.Lat < b.MinLat {
		b.MinLat = c.Lat
	}
	if c.Lat > b.MaxLat {
		b.MaxLat = c.Lat
	}
	if c.Lon < b.MinLon {
		b.MinLon = c.Lon
	}
	if c.Lon > b.MaxLon {
		b.MaxLon = c.Lon
	}
}

// Pad добавляет отступ в градусах по всем сторонам
func (b *BoundingBox) Pad(deg float64) {
	b.MinLat -= deg
	b.MinLon -= deg
	b.MaxLat += deg
	b.MaxLon += deg
}

// Center возвращает центр bbox
func (b BoundingBox) Center() Coordinate {
	return Coordinate{
		Lat: (b.MinLat + b.MaxLat) / 2,
		Lon: (b.MinLon + b.MaxLon) / 2,
	}
}
