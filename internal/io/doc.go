// Package ioutils provides file system, text encoding and image utilities.
//
// This package contains:
//   - BackupManager, the backup-once safety net used before any song or
//     playlist file is rewritten
//   - TextCodec, reading and writing text files in a configured encoding
//   - File copying, filename sanitization and directory creation
//   - ImageService, cover art thumbnails
//
// # Backups
//
//	backups := ioutils.NewBackupManager(true)
//	_ = backups.BackupIfMissing("/songs/Human/Human.txt") // writes Human.txt.bak once
//	_, _ = backups.Restore("/songs/Human/Human.txt", true)
//
// # Text files
//
//	codec, err := ioutils.NewTextCodec("iso-8859-15")
//	text, err := codec.ReadFile(path)
//	err = codec.WriteFile(path, text)
//
// # Filename Sanitization
//
//	safe := ioutils.SanitizeFileName("Rock: 80s/90s") // Returns "Rock_ 80s_90s"
package ioutils
