package domain

import (
	"fmt"
	"strings"
)

// Path identifies a prim by its absolute position in the namespace hierarchy,
// e.g. "/World/Geom/Cube". The zero value is invalid; AbsoluteRoot is "/".
type Path string

// AbsoluteRoot is the pseudo-root every prim path descends from.
const AbsoluteRoot Path = "/"

// ParsePath validates s and returns it as a Path.
// Only absolute prim paths are accepted; every component must satisfy ValidateName.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if !strings.HasPrefix(s, "/") {
		return "", fmt.Errorf("%w: %q is not absolute", ErrInvalidPath, s)
	}
	if s == "/" {
		return AbsoluteRoot, nil
	}
	if strings.HasSuffix(s, "/") {
		return "", fmt.Errorf("%w: %q has a trailing separator", ErrInvalidPath, s)
	}
	for _, elem := range strings.Split(s[1:], "/") {
		if err := ValidateName(elem); err != nil {
			return "", fmt.Errorf("%w: %q: %v", ErrInvalidPath, s, err)
		}
	}
	return Path(s), nil
}

// MustParsePath is ParsePath for literals known to be valid. It panics otherwise.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// ValidateName reports whether name is a legal prim name: a letter or underscore
// followed by letters, digits or underscores.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return nil
}

// String returns the path text.
func (p Path) String() string { return string(p) }

// IsRoot reports whether p is the pseudo-root.
func (p Path) IsRoot() bool { return p == AbsoluteRoot }

// Name returns the final path component ("" for the pseudo-root).
func (p Path) Name() string {
	if p.IsRoot() {
		return ""
	}
	return string(p[strings.LastIndexByte(string(p), '/')+1:])
}

// Parent returns the parent path. The parent of a root prim is AbsoluteRoot and
// the parent of AbsoluteRoot is itself.
func (p Path) Parent() Path {
	if p.IsRoot() {
		return p
	}
	i := strings.LastIndexByte(string(p), '/')
	if i <= 0 {
		return AbsoluteRoot
	}
	return p[:i]
}

// AppendChild returns the path of a child named name.
func (p Path) AppendChild(name string) (Path, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	if p.IsRoot() {
		return Path("/" + name), nil
	}
	return Path(string(p) + "/" + name), nil
}

// Elements returns the name components, root first.
func (p Path) Elements() []string {
	if p.IsRoot() || p == "" {
		return nil
	}
	return strings.Split(string(p[1:]), "/")
}

// HasPrefix reports whether p equals prefix or is a descendant of it.
func (p Path) HasPrefix(prefix Path) bool {
	if prefix.IsRoot() {
		return true
	}
	if p == prefix {
		return true
	}
	return strings.HasPrefix(string(p), string(prefix)+"/")
}

// ReplacePrefix re-roots p from oldPrefix onto newPrefix.
// It returns p unchanged when p is not under oldPrefix.
func (p Path) ReplacePrefix(oldPrefix, newPrefix Path) Path {
	if !p.HasPrefix(oldPrefix) {
		return p
	}
	if p == oldPrefix {
		return newPrefix
	}
	rest := string(p[len(oldPrefix):])
	if oldPrefix.IsRoot() {
		rest = string(p)
	}
	if newPrefix.IsRoot() {
		return Path(rest)
	}
	return Path(string(newPrefix) + rest)
}
