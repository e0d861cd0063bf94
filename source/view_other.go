//go:build !unix

package source

import "os"

type mapView struct{ readView }

func mapFile(*os.File, int) (*mapView, error) { return nil, ErrMapUnsupported }
