package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/hitoshi/classmate/internal/feed"
	"github.com/hitoshi/classmate/internal/model"
)

// renderStatus はステータスを1件出力する。cleanで利用者入力の文字列を無害化する。
func renderStatus(w io.Writer, s model.Status, clean func(string) string) {
	fmt.Fprintf(w, "[%s] %s", s.ID, clean(s.CreatedBy.DisplayName()))
	if s.CreatedAt != "" {
		fmt.Fprintf(w, " (%s)", s.CreatedAt)
	}
	fmt.Fprintln(w)

	for _, line := range strings.Split(clean(s.Content), "\n") {
		fmt.Fprintf(w, "    %s\n", line)
	}

	label := feed.LikeLabel(s.TotalLikes())
	if s.Liked() {
		label += ", including you"
	}
	fmt.Fprintf(w, "    %s\n", label)

	for _, c := range s.Comments {
		fmt.Fprintf(w, "      > %s: %s\n", clean(c.CreatedBy.DisplayName()), clean(c.Content))
	}
}

func renderProfile(w io.Writer, p model.ProfileDetail, clean func(string) string) {
	fmt.Fprintf(w, "name:  %s\n", clean(p.FullName()))
	fmt.Fprintf(w, "email: %s\n", clean(p.Email))
	if p.Role != "" {
		fmt.Fprintf(w, "role:  %s\n", clean(p.Role))
	}
	if p.Type != "" {
		fmt.Fprintf(w, "type:  %s\n", clean(p.Type))
	}

	edu := p.Education
	if edu == nil {
		return
	}
	if edu.Major != "" {
		fmt.Fprintf(w, "major: %s\n", clean(edu.Major))
	}
	if edu.EnrollmentYear != "" {
		fmt.Fprintf(w, "year:  %s\n", clean(edu.EnrollmentYear))
	}
	if edu.StudentID != "" {
		fmt.Fprintf(w, "id:    %s\n", clean(edu.StudentID))
	}
	if edu.School != nil && edu.School.Name != "" {
		fmt.Fprintf(w, "school: %s\n", clean(edu.School.Name))
	}
}

func renderMember(w io.Writer, m model.Member, clean func(string) string) {
	name := m.FullName()
	if name == "" {
		name = m.Email
	}
	line := clean(name)
	if m.Email != "" && name != m.Email {
		line += " <" + clean(m.Email) + ">"
	}
	if m.Education != nil && m.Education.StudentID != "" {
		line += " " + clean(m.Education.StudentID)
	}
	fmt.Fprintln(w, line)
}
