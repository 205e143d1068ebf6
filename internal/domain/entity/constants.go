package entity

// Role is the single role held by an acting account.
type Role string

const (
	RoleAdmin           Role = "ADMIN"            // final approver
	RoleIDPPersonnel    Role = "IDP_PERSONNEL"    // intake desk and expert reviewer
	RoleLegalPersonnel  Role = "LEGAL_PERSONNEL"  // legal reviewer
	RoleInstitutionUser Role = "INSTITUTION_USER" // responder for a target institution
)

var validRoles = map[Role]bool{
	RoleAdmin:           true,
	RoleIDPPersonnel:    true,
	RoleLegalPersonnel:  true,
	RoleInstitutionUser: true,
}

// IsValid returns true if the role is known
func (r Role) IsValid() bool {
	return validRoles[r]
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// Priority constants for Case
const (
	PriorityLow      = "LOW"
	PriorityMedium   = "MEDIUM"
	PriorityHigh     = "HIGH"
	PriorityCritical = "CRITICAL"
)

// Platform constants for Case
const (
	PlatformTwitter   = "TWITTER"
	PlatformFacebook  = "FACEBOOK"
	PlatformInstagram = "INSTAGRAM"
	PlatformYouTube   = "YOUTUBE"
	PlatformWhatsApp  = "WHATSAPP"
	PlatformTelegram  = "TELEGRAM"
	PlatformTikTok    = "TIKTOK"
	PlatformOther     = "OTHER"
)

// Geographic scope constants for Case
const (
	ScopeLocal         = "LOCAL"
	ScopeRegional      = "REGIONAL"
	ScopeNational      = "NATIONAL"
	ScopeInternational = "INTERNATIONAL"
)

// Source type constants for Case
const (
	SourceSocialMedia  = "SOCIAL_MEDIA"
	SourceNewsSite     = "NEWS_SITE"
	SourceBlog         = "BLOG"
	SourceForum        = "FORUM"
	SourceMessagingApp = "MESSAGING_APP"
	SourceOther        = "OTHER"
)

// Institution type constants
const (
	InstitutionTypeMinistry = "MINISTRY"
	InstitutionTypeAgency   = "AGENCY"
	InstitutionTypeOther    = "OTHER"
)

var (
	validPriorities = map[string]bool{
		PriorityLow: true, PriorityMedium: true, PriorityHigh: true, PriorityCritical: true,
	}
	validPlatforms = map[string]bool{
		PlatformTwitter: true, PlatformFacebook: true, PlatformInstagram: true, PlatformYouTube: true,
		PlatformWhatsApp: true, PlatformTelegram: true, PlatformTikTok: true, PlatformOther: true,
	}
	validScopes = map[string]bool{
		ScopeLocal: true, ScopeRegional: true, ScopeNational: true, ScopeInternational: true,
	}
	validSourceTypes = map[string]bool{
		SourceSocialMedia: true, SourceNewsSite: true, SourceBlog: true,
		SourceForum: true, SourceMessagingApp: true, SourceOther: true,
	}
)

// IsValidPriority reports whether p is a known priority
func IsValidPriority(p string) bool { return validPriorities[p] }

// IsValidPlatform reports whether p is a known platform
func IsValidPlatform(p string) bool { return validPlatforms[p] }

// IsValidScope reports whether s is a known geographic scope
func IsValidScope(s string) bool { return validScopes[s] }

// IsValidSourceType reports whether s is a known source type
func IsValidSourceType(s string) bool { return validSourceTypes[s] }
