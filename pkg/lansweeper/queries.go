package lansweeper

const basicInfoFields = `
      name
      domain
      ipAddress
      mac
      firstSeen
      lastSeen
      type
      userDomain
      userName
      fqdn
      description`

const customFields = `
      manufacturer
      model
      serialNumber
      location
      contact
      comment
      warrantyDate
      purchaseDate
      stateName
      dnsName
      sku
      barcode`

const queryAuthorizedSites = `query GetAuthorizedSites {
  authorizedSites {
    sites {
      id
      name
      description
    }
  }
}`

const querySiteByID = `query GetSiteById($siteId: ID!) {
  site(id: $siteId) {
    id
    name
    description
  }
}`

const queryAssetsBySite = `query GetAssetsBySite($siteId: ID!, $limit: Int!) {
  site(id: $siteId) {
    assetResources(assetPagination: { limit: $limit }) {
      total
      items {
        id
        assetBasicInfo {` + basicInfoFields + `
        }
      }
    }
  }
}`

const queryAssetsPage = `query GetAssetsPage($siteId: ID!, $limit: Int!, $cursor: String) {
  site(id: $siteId) {
    assetResources(assetPagination: { limit: $limit, cursor: $cursor, page: NEXT }) {
      total
      pagination {
        limit
        current
        next
        page
      }
      items {
        id
        assetBasicInfo {` + basicInfoFields + `
        }
      }
    }
  }
}`

const queryAssetByID = `query GetAssetById($assetId: ID!) {
  asset(id: $assetId) {
    ...DetailedAssetFields
  }
}

fragment DetailedAssetFields on Asset {
  id
  assetBasicInfo {` + basicInfoFields + `
  }
  assetCustom {` + customFields + `
  }
}`

const queryCurrentUser = `query GetCurrentUser {
  me {
    id
    email
    name
  }
}`
