// Package scenes registers the timelines framecast can serve by name.
package scenes
