package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/labflow-backend/internal/data/repos"
	"github.com/yungbote/labflow-backend/internal/domain/labtest"
	"github.com/yungbote/labflow-backend/internal/domain/user"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
	"github.com/yungbote/labflow-backend/internal/render"
)

// Notice is a best-effort heads-up to the section heads of some departments.
type Notice struct {
	Departments []labtest.Department
	Headline    string
	RequestID   string
	ClientName  string
	Lines       []string
}

type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

type sectionHeadNotifier struct {
	log    *logger.Logger
	users  repos.UserRepo
	mailer Mailer
	extra  map[labtest.Department][]string
}

// NewSectionHeadNotifier mails the section-head users of each department plus
// any statically configured addresses.
func NewSectionHeadNotifier(log *logger.Logger, users repos.UserRepo, mailer Mailer, extra map[labtest.Department][]string) Notifier {
	return &sectionHeadNotifier{
		log:    log.With("service", "SectionHeadNotifier"),
		users:  users,
		mailer: mailer,
		extra:  extra,
	}
}

func sectionHeadRole(d labtest.Department) user.Role {
	if d == labtest.DepartmentChemical {
		return user.RoleChemicalSectionHead
	}
	return user.RoleMechanicalSectionHead
}

func (n *sectionHeadNotifier) Notify(ctx context.Context, notice Notice) error {
	html, err := render.HTML(render.TemplateMailNotice, render.MailView{
		ClientName: notice.ClientName,
		RequestID:  notice.RequestID,
		Headline:   notice.Headline,
		Lines:      notice.Lines,
	})
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, dept := range notice.Departments {
		dept := dept
		g.Go(func() error {
			to, err := n.recipients(gctx, dept)
			if err != nil {
				return fmt.Errorf("%s recipients: %w", dept, err)
			}
			if len(to) == 0 {
				n.log.Debug("no section head to notify", "department", dept)
				return nil
			}
			return n.mailer.Send(gctx, Mail{
				Kind:    "notice",
				To:      to,
				Subject: fmt.Sprintf("%s: %s", notice.Headline, notice.RequestID),
				HTML:    html,
			})
		})
	}
	return g.Wait()
}

func (n *sectionHeadNotifier) recipients(ctx context.Context, dept labtest.Department) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	add := func(email string) {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" && !seen[email] {
			seen[email] = true
			out = append(out, email)
		}
	}
	if n.users != nil {
		heads, err := n.users.ListByRoles(ctx, nil, []user.Role{sectionHeadRole(dept)})
		if err != nil {
			return nil, err
		}
		for _, h := range heads {
			add(h.Email)
		}
	}
	for _, e := range n.extra[dept] {
		add(e)
	}
	return out, nil
}
