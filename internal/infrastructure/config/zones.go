package config

// ZonesConfig maps cities to their zone definition files
type ZonesConfig struct {
	// Files maps a lowercase city name to a GeoJSON feature collection
	// containing that city's zone polygons
	Files map[string]string `mapstructure:"files"`
}
