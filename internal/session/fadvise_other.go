//go:build !linux

package session

import "os"

func adviseSequential(*os.File) {}
