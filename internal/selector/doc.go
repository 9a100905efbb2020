// Package selector draws random image numbers for a category and picks a
// category out of a group in proportion to how many images each holds.
//
// Weighted picks walk the group in order and subtract each category's count
// from a uniform draw in [0, total). A category with 900 images is therefore
// nine times as likely as one with 100, which keeps every individual image
// equally likely across the whole group. Categories with no images are never
// chosen.
package selector
