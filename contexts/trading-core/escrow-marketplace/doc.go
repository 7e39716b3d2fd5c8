// Package escrowmarketplace holds the escrowed-asset marketplace engine: a
// seller deposits a unique asset into custody, advertises it at a price, and
// a buyer later pays atomically in exchange for release of ownership, with a
// basis-point service fee accrued to the marketplace and a per-asset-type
// royalty routed to its registered creator.
//
// The listing row owns the escrowed asset for its whole lifetime: a listing
// exists exactly while its asset is in custody, and every exit path (delist,
// force delist, purchase) removes the row and releases the asset in the same
// repository write.
package escrowmarketplace
