// Package royaltyregistry holds the creator royalty records consulted by the
// marketplace on every sale. One entry per asset type maps a type tag to a
// creator account and a basis-point rate; an absent entry means zero royalty.
package royaltyregistry
