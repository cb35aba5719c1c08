package bag

import (
	"fmt"

	"github.com/midbel/damasc/eval"
	bolt "go.etcd.io/bbolt"
)

// BoltSnapshotter checkpoints an entire Set to a bbolt database file,
// giving the shell crash-safe persistence between sessions on top of
// the plain-text .dump/.load path (which stays the canonical,
// human-readable format for a single bag). One bucket per bag; within
// a bucket, key is the zero-padded journal index and value is the
// entry's canonical text, so re-reading a bucket in key order
// reproduces journal order.
type BoltSnapshotter struct {
	Path string
}

func NewBoltSnapshotter(path string) *BoltSnapshotter {
	return &BoltSnapshotter{Path: path}
}

// Save writes every bag in set to the database at s.Path, replacing the
// stored bucket of each of those bags; buckets for bag names not in set
// are left in the file. The file handle is open only for the duration
// of the call.
func (s *BoltSnapshotter) Save(set *Set) error {
	db, err := bolt.Open(s.Path, 0o644, nil)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBag, err)
	}
	defer db.Close()

	return db.Update(func(tx *bolt.Tx) error {
		for _, name := range set.Names() {
			b, _ := set.Get(name)
			if err := tx.DeleteBucket([]byte(name)); err != nil && err != bolt.ErrBucketNotFound {
				return err
			}
			bucket, err := tx.CreateBucket([]byte(name))
			if err != nil {
				return err
			}
			for i, v := range b.Entries() {
				key := []byte(fmt.Sprintf("%08d", i))
				if err := bucket.Put(key, []byte(v.String())); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Load reads back a database written by Save, appending the stored
// entries to every bag it names in set (creating missing bags through
// Switch; bags not mentioned in the database are left untouched).
// Schemas already attached to set's bags are kept; loaded entries are
// appended without re-validation, matching .load's append semantics.
func (s *BoltSnapshotter) Load(set *Set) error {
	db, err := bolt.Open(s.Path, 0o644, nil)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBag, err)
	}
	defer db.Close()

	return db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, bucket *bolt.Bucket) error {
			target := set.Switch(string(name))
			return bucket.ForEach(func(_, text []byte) error {
				expr, err := eval.ParseExpr(string(text))
				if err != nil {
					return fmt.Errorf("%w: %s", ErrBag, err)
				}
				v, err := eval.EvalExpr(expr, eval.EmptyEnv())
				if err != nil {
					return fmt.Errorf("%w: %s", ErrBag, err)
				}
				target.appendRaw(v)
				return nil
			})
		})
	})
}
