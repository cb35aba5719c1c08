// Package bag implements the multiset store: named bags of Values with
// optional insert schemas, backing the `.bag`/`.insert`/`.delete`/`.pop`/
// `.dump`/`.load` shell commands.
package bag

import "errors"

// ErrBag is the sentinel wrapped by every bag-level error: unknown bag,
// invalid name, a bag that already exists, load/dump I/O failure.
var ErrBag = errors.New("bag error")
