package cameras

// DefaultFleet is the stock five-camera installation. IDs and image
// references line up with the detection service's camera mapping.
func DefaultFleet() []Camera {
	return []Camera{
		{
			ID:        "cam-1",
			Name:      "Downtown Crossing",
			Location:  "City Street, Downtown",
			Address:   "402 Market Street",
			Latitude:  37.7936,
			Longitude: -122.3965,
			ImageRef:  "/city-street-downtown.jpg",
		},
		{
			ID:          "cam-2",
			Name:        "Harris Warehouse",
			Location:    "Industrial Area",
			Address:     "1200 Illinois Street",
			Latitude:    37.7577,
			Longitude:   -122.3874,
			ImageRef:    "/warehouse-industrial-area.jpg",
			FireWindows: []int64{15000},
		},
		{
			ID:        "cam-3",
			Name:      "Maple Residential",
			Location:  "Residential Street",
			Address:   "87 Maple Avenue",
			Latitude:  37.7599,
			Longitude: -122.4148,
			ImageRef:  "/residential-street.jpg",
		},
		{
			ID:          "cam-4",
			Name:        "Lakeside Park",
			Location:    "Urban Park",
			Address:     "Park Presidio Blvd",
			Latitude:    37.7694,
			Longitude:   -122.4862,
			ImageRef:    "/park-urban.jpg",
			FireWindows: []int64{45000},
		},
		{
			ID:        "cam-5",
			Name:      "Harbor Waterfront",
			Location:  "Waterfront",
			Address:   "Pier 38, Embarcadero",
			Latitude:  37.7816,
			Longitude: -122.3876,
			ImageRef:  "/harbor-waterfront.jpg",
		},
	}
}
