package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"lyrics-resolver-go/logcolors"
	"lyrics-resolver-go/utils"
)

const bucketName = "cache"

// PersistentCache is a BoltDB-backed store mirrored in memory. Reads
// are served from the sync.Map; writes go to both. Values can be
// gzip-compressed transparently.
type PersistentCache struct {
	db                 *bolt.DB
	memCache           sync.Map
	dbPath             string
	backupPath         string
	compressionEnabled bool
}

// CacheEntry is the stored form of one value. StoredAt lets callers
// apply their own TTL policy at read time.
type CacheEntry struct {
	Value    string `json:"value"`
	StoredAt int64  `json:"storedAt"` // unix seconds, 0 for entries written by older builds
}

// NewPersistentCache opens (or creates) the database and preloads all
// entries into memory.
func NewPersistentCache(dbPath string, backupPath string, compressionEnabled bool) (*PersistentCache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %v", err)
	}
	if err := os.MkdirAll(backupPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %v", err)
	}

	if info, err := os.Stat(dbPath); err == nil {
		log.Infof("%s Found existing database at %s (size: %d bytes)", logcolors.LogCacheInit, dbPath, info.Size())
	} else {
		log.Infof("%s Creating new database at %s", logcolors.LogCacheInit, dbPath)
	}

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %v", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %v", err)
	}

	pc := &PersistentCache{
		db:                 db,
		dbPath:             dbPath,
		backupPath:         backupPath,
		compressionEnabled: compressionEnabled,
	}

	if err := pc.loadToMemory(); err != nil {
		log.Warnf("%s Failed to preload cache to memory: %v", logcolors.LogCache, err)
	}

	log.Infof("%s Persistent cache ready at %s (compression: %v)", logcolors.LogCache, dbPath, compressionEnabled)
	return pc, nil
}

func (pc *PersistentCache) loadToMemory() error {
	count := 0
	err := pc.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var entry CacheEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				log.Warnf("%s Skipping unreadable entry for key %s: %v", logcolors.LogCache, string(k), err)
				return nil
			}
			pc.memCache.Store(string(k), entry)
			count++
			return nil
		})
	})
	if err != nil {
		return err
	}

	log.Infof("%s Loaded %d entries from disk", logcolors.LogCache, count)
	return nil
}

// Get retrieves and decompresses a value. Memory first, disk on miss.
func (pc *PersistentCache) Get(key string) (string, bool) {
	value, _, ok := pc.GetWithAge(key)
	return value, ok
}

// GetWithAge retrieves a value along with the time it was stored. A
// zero time means the entry predates age tracking.
func (pc *PersistentCache) GetWithAge(key string) (string, time.Time, bool) {
	if cached, ok := pc.memCache.Load(key); ok {
		return pc.decode(key, cached.(CacheEntry))
	}

	var entry CacheEntry
	err := pc.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		data := b.Get([]byte(key))
		if data == nil {
			return fmt.Errorf("key not found")
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return "", time.Time{}, false
	}

	// Repopulate the memory mirror with the stored (compressed) form
	pc.memCache.Store(key, entry)
	return pc.decode(key, entry)
}

func (pc *PersistentCache) decode(key string, entry CacheEntry) (string, time.Time, bool) {
	var storedAt time.Time
	if entry.StoredAt > 0 {
		storedAt = time.Unix(entry.StoredAt, 0)
	}

	if pc.compressionEnabled {
		decompressed, err := utils.DecompressString(entry.Value)
		if err != nil {
			log.Errorf("%s Error decompressing value for key %s: %v", logcolors.LogCache, key, err)
			return "", time.Time{}, false
		}
		return decompressed, storedAt, true
	}
	return entry.Value, storedAt, true
}

// Set stores a value in both memory and disk, compressing when enabled.
func (pc *PersistentCache) Set(key, value string) error {
	finalValue := value
	if pc.compressionEnabled {
		compressed, err := utils.CompressString(value)
		if err != nil {
			log.Errorf("%s Error compressing value for key %s: %v", logcolors.LogCache, key, err)
			return err
		}
		finalValue = compressed
	}

	entry := CacheEntry{
		Value:    finalValue,
		StoredAt: time.Now().Unix(),
	}

	pc.memCache.Store(key, entry)

	return pc.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
}

// Delete removes a key from both layers.
func (pc *PersistentCache) Delete(key string) error {
	pc.memCache.Delete(key)

	return pc.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.Delete([]byte(key))
	})
}

// Clear removes every entry.
func (pc *PersistentCache) Clear() error {
	pc.memCache.Range(func(key, value interface{}) bool {
		pc.memCache.Delete(key)
		return true
	})

	return pc.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketName)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(bucketName))
		return err
	})
}

// Range iterates over the memory mirror. Values are in stored
// (possibly compressed) form.
func (pc *PersistentCache) Range(fn func(key string, entry CacheEntry) bool) {
	pc.memCache.Range(func(k, v interface{}) bool {
		return fn(k.(string), v.(CacheEntry))
	})
}

// Stats returns the entry count and approximate stored size.
func (pc *PersistentCache) Stats() (numKeys int, sizeInKB int) {
	pc.memCache.Range(func(k, v interface{}) bool {
		entry := v.(CacheEntry)
		numKeys++
		sizeInKB += len(k.(string)) + len(entry.Value)
		return true
	})
	sizeInKB = sizeInKB / 1024
	return
}

// Backup copies the database file to the backup directory and returns
// the backup path. The database is closed for the duration of the copy
// so the file on disk is consistent.
func (pc *PersistentCache) Backup() (string, error) {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	backupFilePath := filepath.Join(pc.backupPath, fmt.Sprintf("cache_backup_%s.db", timestamp))

	log.Infof("%s Creating backup at %s", logcolors.LogCache, backupFilePath)

	if err := pc.db.Close(); err != nil {
		return "", fmt.Errorf("failed to close database for backup: %v", err)
	}

	if err := copyFile(pc.dbPath, backupFilePath); err != nil {
		pc.reopenDatabase()
		return "", fmt.Errorf("failed to copy database file: %v", err)
	}

	if err := pc.reopenDatabase(); err != nil {
		return "", fmt.Errorf("failed to reopen database after backup: %v", err)
	}

	log.Infof("%s Backup created: %s", logcolors.LogCache, backupFilePath)
	return backupFilePath, nil
}

// BackupAndClear backs up the database, then wipes it.
func (pc *PersistentCache) BackupAndClear() (string, error) {
	backupPath, err := pc.Backup()
	if err != nil {
		return "", fmt.Errorf("failed to create backup: %v", err)
	}

	if err := pc.Clear(); err != nil {
		return backupPath, fmt.Errorf("backup created but failed to clear cache: %v", err)
	}

	log.Infof("%s Cache cleared (backup: %s)", logcolors.LogCacheClear, backupPath)
	return backupPath, nil
}

func (pc *PersistentCache) reopenDatabase() error {
	db, err := bolt.Open(pc.dbPath, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to reopen database: %v", err)
	}
	pc.db = db

	if err := pc.loadToMemory(); err != nil {
		log.Warnf("%s Failed to reload cache to memory: %v", logcolors.LogCache, err)
	}
	return nil
}

// BackupInfo describes one backup file.
type BackupInfo struct {
	FileName  string    `json:"fileName"`
	FilePath  string    `json:"filePath"`
	Size      int64     `json:"sizeBytes"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListBackups returns all backup files in the backup directory.
func (pc *PersistentCache) ListBackups() ([]BackupInfo, error) {
	var backups []BackupInfo

	entries, err := os.ReadDir(pc.backupPath)
	if err != nil {
		if os.IsNotExist(err) {
			return backups, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %v", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".db" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			log.Warnf("%s Failed to stat %s: %v", logcolors.LogCache, entry.Name(), err)
			continue
		}
		backups = append(backups, BackupInfo{
			FileName:  entry.Name(),
			FilePath:  filepath.Join(pc.backupPath, entry.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}
	return backups, nil
}

// RestoreFromBackup swaps in a backup file for the live database. The
// current file is kept as a .pre-restore copy until the swap succeeds.
func (pc *PersistentCache) RestoreFromBackup(backupFileName string) error {
	backupFilePath := filepath.Join(pc.backupPath, backupFileName)

	if filepath.Ext(backupFileName) != ".db" {
		return fmt.Errorf("invalid backup file: must be a .db file")
	}
	if _, err := os.Stat(backupFilePath); os.IsNotExist(err) {
		return fmt.Errorf("backup file not found: %s", backupFileName)
	}

	log.Infof("%s Restoring from backup: %s", logcolors.LogCache, backupFileName)

	if err := pc.db.Close(); err != nil {
		return fmt.Errorf("failed to close current database: %v", err)
	}

	currentBackupPath := pc.dbPath + ".pre-restore"
	if err := copyFile(pc.dbPath, currentBackupPath); err != nil {
		pc.reopenDatabase()
		return fmt.Errorf("failed to preserve current database: %v", err)
	}

	if err := copyFile(backupFilePath, pc.dbPath); err != nil {
		copyFile(currentBackupPath, pc.dbPath)
		pc.reopenDatabase()
		return fmt.Errorf("failed to restore backup: %v", err)
	}

	os.Remove(currentBackupPath)

	if err := pc.reopenDatabase(); err != nil {
		return fmt.Errorf("failed to reopen database after restore: %v", err)
	}

	log.Infof("%s Restored from backup: %s", logcolors.LogCache, backupFileName)
	return nil
}

// DeleteBackup removes one backup file.
func (pc *PersistentCache) DeleteBackup(backupFileName string) error {
	backupFilePath := filepath.Join(pc.backupPath, backupFileName)

	if filepath.Ext(backupFileName) != ".db" {
		return fmt.Errorf("invalid backup file: must be a .db file")
	}
	if _, err := os.Stat(backupFilePath); os.IsNotExist(err) {
		return fmt.Errorf("backup file not found: %s", backupFileName)
	}
	if err := os.Remove(backupFilePath); err != nil {
		return fmt.Errorf("failed to delete backup: %v", err)
	}

	log.Infof("%s Deleted backup: %s", logcolors.LogCache, backupFileName)
	return nil
}

func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}

// Close closes the underlying database.
func (pc *PersistentCache) Close() error {
	if pc.db != nil {
		return pc.db.Close()
	}
	return nil
}
