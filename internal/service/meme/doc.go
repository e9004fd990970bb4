// Package meme implements the generation pipeline that turns a user
// idea into a captioned image: visual prompt, caption, image rendering
// and artifact storage.
package meme
