package lansweeper

import "time"

// Site is a LanSweeper site the token is authorized for.
type Site struct {
	ID          string  `json:"id"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// User is the account that owns the access token.
type User struct {
	ID    string  `json:"id"`
	Email *string `json:"email,omitempty"`
	Name  *string `json:"name,omitempty"`
}

// Asset is an inventoried device.
type Asset struct {
	ID        *string         `json:"id,omitempty"`
	BasicInfo *AssetBasicInfo `json:"assetBasicInfo,omitempty"`
	Custom    *AssetCustom    `json:"assetCustom,omitempty"`
}

// AssetBasicInfo holds scanned identity and network data.
type AssetBasicInfo struct {
	Name        *string    `json:"name,omitempty"`
	Domain      *string    `json:"domain,omitempty"`
	IPAddress   *string    `json:"ipAddress,omitempty"`
	MAC         *string    `json:"mac,omitempty"`
	FirstSeen   *time.Time `json:"firstSeen,omitempty"`
	LastSeen    *time.Time `json:"lastSeen,omitempty"`
	Type        *string    `json:"type,omitempty"`
	UserDomain  *string    `json:"userDomain,omitempty"`
	UserName    *string    `json:"userName,omitempty"`
	FQDN        *string    `json:"fqdn,omitempty"`
	Description *string    `json:"description,omitempty"`
}

// AssetCustom holds user-maintained asset fields.
type AssetCustom struct {
	Manufacturer *string    `json:"manufacturer,omitempty"`
	Model        *string    `json:"model,omitempty"`
	SerialNumber *string    `json:"serialNumber,omitempty"`
	Location     *string    `json:"location,omitempty"`
	Contact      *string    `json:"contact,omitempty"`
	Comment      *string    `json:"comment,omitempty"`
	WarrantyDate *time.Time `json:"warrantyDate,omitempty"`
	PurchaseDate *time.Time `json:"purchaseDate,omitempty"`
	StateName    *string    `json:"stateName,omitempty"`
	DNSName      *string    `json:"dnsName,omitempty"`
	SKU          *string    `json:"sku,omitempty"`
	Barcode      *string    `json:"barcode,omitempty"`
}

// Pagination describes the cursor state of a page of assets.
type Pagination struct {
	Limit   *int    `json:"limit,omitempty"`
	Current *string `json:"current,omitempty"`
	Next    *string `json:"next,omitempty"`
	Page    *string `json:"page,omitempty"`
}

// HasNextPage reports whether a further page can be requested.
func (p *Pagination) HasNextPage() bool {
	return p != nil && p.Next != nil && *p.Next != ""
}

// AssetPage is one page of a site's assets.
type AssetPage struct {
	Total      *int        `json:"total,omitempty"`
	Items      []Asset     `json:"items"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// String returns a pointer to s. It is a convenience for building models.
func String(s string) *string { return &s }

// Deref returns the value of p or "" when p is nil.
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
