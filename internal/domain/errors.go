package domain

import "errors"

var (
	// ErrCorpusLoad signals that the listing corpus could not be built.
	// Fatal at startup: no indexes can exist without a corpus.
	ErrCorpusLoad = errors.New("corpus load failed")
	// ErrMalformedListing signals a single unusable listing record.
	// Local recovery: the adapter drops the record and logs it.
	ErrMalformedListing = errors.New("malformed listing")
	// ErrEmbeddingUnavailable signals that the embedding backend cannot be
	// reached. Search degrades to lexical+rating+price; retrieval fails.
	ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")
	// ErrListingNotFound signals a missing listing id.
	ErrListingNotFound = errors.New("listing not found")
	// ErrEmptyQuery signals a blank search query.
	ErrEmptyQuery = errors.New("query must not be empty")
	// ErrVocabLoad signals an unreadable or invalid vocabulary file.
	ErrVocabLoad = errors.New("vocabulary load failed")
)
