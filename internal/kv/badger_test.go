package kv

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenInMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCursorScan(t *testing.T) {
	db := testDB(t)
	err := db.Update(func(txn Txn) error {
		for i := 0; i < 5; i++ {
			if err := txn.Insert([]byte(fmt.Sprintf("a~%d", i)), []byte{byte(i)}); err != nil {
				return err
			}
		}
		return txn.Insert([]byte("b~0"), []byte{9})
	})
	require.NoError(t, err)

	err = db.View(func(txn Txn) error {
		cur := txn.Cursor()
		defer cur.Close()
		var keys []string
		for ok := cur.SeekFirstOrGreater([]byte("a")); ok; ok = cur.Next() {
			keys = append(keys, string(cur.Key()))
		}
		require.Equal(t, []string{"a~0", "a~1", "a~2", "a~3", "a~4", "b~0"}, keys)
		return nil
	})
	require.NoError(t, err)
}

func TestCursorSeekFirstOrGreater(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.Update(func(txn Txn) error {
		return txn.Insert([]byte("k5"), []byte("v"))
	}))
	require.NoError(t, db.View(func(txn Txn) error {
		cur := txn.Cursor()
		defer cur.Close()
		require.True(t, cur.SeekFirstOrGreater([]byte("k1")))
		require.Equal(t, "k5", string(cur.Key()))
		require.False(t, cur.SeekFirstOrGreater([]byte("k9")))
		return nil
	}))
}

func TestCursorDeleteDuringScan(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.Update(func(txn Txn) error {
		for i := 0; i < 10; i++ {
			if err := txn.Insert([]byte(fmt.Sprintf("u1~q~%02d", i)), []byte("x")); err != nil {
				return err
			}
		}
		return txn.Insert([]byte("u2~q~00"), []byte("keep"))
	}))

	require.NoError(t, db.Update(func(txn Txn) error {
		cur := txn.Cursor()
		defer cur.Close()
		n := 0
		for ok := cur.SeekFirstOrGreater([]byte("u1")); ok; ok = cur.Next() {
			if string(cur.Key()) >= "u2" {
				break
			}
			require.NoError(t, cur.Delete())
			n++
		}
		require.Equal(t, 10, n)
		return nil
	}))

	require.NoError(t, db.View(func(txn Txn) error {
		cur := txn.Cursor()
		defer cur.Close()
		require.True(t, cur.SeekFirstOrGreater(nil))
		require.Equal(t, "u2~q~00", string(cur.Key()))
		require.False(t, cur.Next())
		return nil
	}))
}

func TestInsertUpdateOverwrite(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.Update(func(txn Txn) error {
		if err := txn.Insert([]byte("k"), []byte("a")); err != nil {
			return err
		}
		return txn.Update([]byte("k"), []byte("b"))
	}))
	require.NoError(t, db.View(func(txn Txn) error {
		cur := txn.Cursor()
		defer cur.Close()
		require.True(t, cur.SeekFirstOrGreater([]byte("k")))
		v, err := cur.Value()
		require.NoError(t, err)
		require.Equal(t, "b", string(v))
		return nil
	}))
}
