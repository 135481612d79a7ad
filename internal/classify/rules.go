// Package classify assigns URLs to marketing-analytics clusters.
//
// Each output column is driven by an ordered list of substring rules. Rules are
// evaluated top to bottom and the first rule whose substring is contained in the
// URL decides the value; when nothing matches the column default is used. The
// three columns are evaluated independently, so a URL may take its cluster from
// one rule and its sub-cluster from an unrelated one.
//
// The same rule table drives both the in-process evaluator (Classify) and the
// SQL rendering used when classification runs inside the query engine
// (RenderSelect), which keeps the two build modes in lockstep.
package classify

import "database/sql"

// Output column names of the lookup table.
const (
	ColumnURL             = "url"
	ColumnCluster         = "url_cluster"
	ColumnSubCluster      = "url_sub_cluster"
	ColumnCountryLanguage = "country_language"
	ColumnTargetKeyword   = "target_keyword"

	// columnTargetKeywords is the intermediate comma-joined keyword column.
	columnTargetKeywords = "target_keywords"
)

// Domain is the substring a URL must contain to qualify for the lookup table.
const Domain = "dhl.com"

// Column defaults.
const (
	DefaultCluster    = "Other"
	DefaultSubCluster = "General"
)

// Rule maps a URL substring to a column value.
type Rule struct {
	Contains string `json:"contains"`
	Value    string `json:"value"`
}

// RuleSet is the ordered rule list for one derived column.
type RuleSet struct {
	// Column is the name of the derived column.
	Column string
	// Rules are evaluated in order; the first match wins.
	Rules []Rule
	// Default applies when no rule matches. An invalid Default means NULL.
	Default sql.NullString
}

// ClusterRules assigns the top-level cluster.
var ClusterRules = RuleSet{
	Column: ColumnCluster,
	Rules: []Rule{
		{"/tracking", "Tracking"},
		{"/express", "Express Services"},
		{"/supply-chain", "Supply Chain"},
		{"/logistics", "Logistics"},
		{"/careers", "Careers"},
		{"/about", "About DHL"},
		{"/discover", "Discover"},
		{"/contact", "Contact"},
	},
	Default: sql.NullString{String: DefaultCluster, Valid: true},
}

// SubClusterRules assigns the sub-cluster. Specific paths precede generic ones.
var SubClusterRules = RuleSet{
	Column: ColumnSubCluster,
	Rules: []Rule{
		{"/tracking", "Shipment Tracking"},
		{"/express/shipping", "Shipping Services"},
		{"/express/quote", "Quote & Pricing"},
		{"/supply-chain/warehousing", "Warehousing"},
		{"/careers/jobs", "Job Listings"},
	},
	Default: sql.NullString{String: DefaultSubCluster, Valid: true},
}

// KeywordRules assigns the comma-joined candidate search keywords.
var KeywordRules = RuleSet{
	Column: columnTargetKeywords,
	Rules: []Rule{
		{"/tracking", "tracking,track shipment,track package,where is my package"},
		{"/express/shipping", "shipping,international shipping,send package"},
		{"/careers", "careers,jobs,employment,hiring"},
		{"/contact", "contact,customer service,phone number,support"},
	},
}

// RuleSets returns the rule sets in output column order.
func RuleSets() []RuleSet {
	return []RuleSet{ClusterRules, SubClusterRules, KeywordRules}
}

// Match returns the value of the first rule whose substring is contained in url,
// or the default when none matches. Matching is case-sensitive.
func (rs RuleSet) Match(url string) sql.NullString {
	for _, r := range rs.Rules {
		if contains(url, r.Contains) {
			return sql.NullString{String: r.Value, Valid: true}
		}
	}
	return rs.Default
}
