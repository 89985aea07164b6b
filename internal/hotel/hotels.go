package hotel

type Hotel struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Domain string `json:"domain"`
	Flag   string `json:"flag"`
}

var hotels = []Hotel{
	{ID: "com", Name: "Habbo.com", Domain: "www.habbo.com", Flag: "🇺🇸"},
	{ID: "com.br", Name: "Habbo.com.br", Domain: "www.habbo.com.br", Flag: "🇧🇷"},
	{ID: "de", Name: "Habbo.de", Domain: "www.habbo.de", Flag: "🇩🇪"},
	{ID: "es", Name: "Habbo.es", Domain: "www.habbo.es", Flag: "🇪🇸"},
	{ID: "fi", Name: "Habbo.fi", Domain: "www.habbo.fi", Flag: "🇫🇮"},
	{ID: "fr", Name: "Habbo.fr", Domain: "www.habbo.fr", Flag: "🇫🇷"},
	{ID: "it", Name: "Habbo.it", Domain: "www.habbo.it", Flag: "🇮🇹"},
	{ID: "nl", Name: "Habbo.nl", Domain: "www.habbo.nl", Flag: "🇳🇱"},
	{ID: "com.tr", Name: "Habbo.com.tr", Domain: "www.habbo.com.tr", Flag: "🇹🇷"},
}

// All returns a copy of the supported hotels in display order.
func All() []Hotel {
	out := make([]Hotel, len(hotels))
	copy(out, hotels)
	return out
}

func ByID(id string) (Hotel, bool) {
	for _, h := range hotels {
		if h.ID == id {
			return h, true
		}
	}
	return Hotel{}, false
}

func (h Hotel) BaseURL() string {
	return "https://" + h.Domain
}
