package mockapi

import (
	"time"

	"github.com/jmerrifield20/lansweeper-go/pkg/lansweeper"
)

// Dataset is the inventory served by the mock API.
type Dataset struct {
	// Token is the access token clients must present with the Token scheme.
	Token  string
	User   *lansweeper.User
	Sites  []lansweeper.Site
	Assets map[string][]lansweeper.Asset
}

func (d Dataset) site(id string) *lansweeper.Site {
	for i := range d.Sites {
		if d.Sites[i].ID == id {
			s := d.Sites[i]
			return &s
		}
	}
	return nil
}

func (d Dataset) asset(id string) *lansweeper.Asset {
	for _, assets := range d.Assets {
		for i := range assets {
			if assets[i].ID != nil && *assets[i].ID == id {
				a := assets[i]
				return &a
			}
		}
	}
	return nil
}

// SampleDataset returns a small inventory of two sites. The second site
// has no assets.
func SampleDataset(token string) Dataset {
	s := lansweeper.String
	seen := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	ts := func(t time.Time) *time.Time { return &t }

	return Dataset{
		Token: token,
		User: &lansweeper.User{
			ID:    "user-1",
			Email: s("it-ops@example.com"),
			Name:  s("IT Operations"),
		},
		Sites: []lansweeper.Site{
			{ID: "site-hq", Name: s("Headquarters"), Description: s("Main office")},
			{ID: "site-lab", Name: s("Lab")},
		},
		Assets: map[string][]lansweeper.Asset{
			"site-hq": {
				{
					ID: s("asset-1"),
					BasicInfo: &lansweeper.AssetBasicInfo{
						Name:      s("WS-0001"),
						Domain:    s("corp.example.com"),
						IPAddress: s("10.0.0.11"),
						MAC:       s("00:11:22:33:44:55"),
						FirstSeen: ts(seen.AddDate(0, -6, 0)),
						LastSeen:  ts(seen),
						Type:      s("Windows"),
						UserName:  s("alice"),
						FQDN:      s("ws-0001.corp.example.com"),
					},
					Custom: &lansweeper.AssetCustom{
						Manufacturer: s("Dell Inc."),
						Model:        s("Latitude 7440"),
						SerialNumber: s("SN-0001"),
						Location:     s("Floor 2"),
						StateName:    s("Active"),
						WarrantyDate: ts(seen.AddDate(2, 0, 0)),
					},
				},
				{
					ID: s("asset-2"),
					BasicInfo: &lansweeper.AssetBasicInfo{
						Name:      s("PRN-0002"),
						IPAddress: s("10.0.0.50"),
						Type:      s("Printer"),
						LastSeen:  ts(seen),
					},
				},
				{
					ID: s("asset-3"),
					BasicInfo: &lansweeper.AssetBasicInfo{
						Name:      s("SRV-0003"),
						Domain:    s("corp.example.com"),
						IPAddress: s("10.0.1.5"),
						Type:      s("Linux"),
						LastSeen:  ts(seen),
					},
					Custom: &lansweeper.AssetCustom{
						Manufacturer: s("HPE"),
						Model:        s("ProLiant DL360"),
						Barcode:      s("BC-0003"),
					},
				},
			},
		},
	}
}
