// Package schemas registers the component inventory import layouts with the
// core registry. Import it for side effects to make every kind importable.
package schemas

// Each kind file registers its schema from init().
