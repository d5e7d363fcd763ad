package model

// DefaultLanguageCode is the locale used before the language list is loaded.
const DefaultLanguageCode = "ar"

// Text directions.
const (
	DirectionRTL = "rtl"
	DirectionLTR = "ltr"
)

// DirectionFor returns the text direction for a language.
func DirectionFor(isRTL bool) string {
	if isRTL {
		return DirectionRTL
	}
	return DirectionLTR
}

// Category kinds.
const (
	CategoryKindArticle = "article"
	CategoryKindProduct = "product"
)

// IsValidCategoryKind reports whether k is a known category kind.
func IsValidCategoryKind(k string) bool {
	return k == CategoryKindArticle || k == CategoryKindProduct
}

// Lookup kinds used by the ordering form.
const (
	LookupCountry        = "country"
	LookupCity           = "city"
	LookupPort           = "port"
	LookupDeliveryMethod = "delivery_method"
)

// Well-known site setting keys.
const (
	SettingSiteName       = "site_name"
	SettingAboutText      = "about_text"
	SettingContactAddress = "contact_address"
	SettingContactEmail   = "contact_email"
	SettingContactPhone   = "contact_phone"
)
