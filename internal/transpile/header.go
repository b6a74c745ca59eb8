package transpile

import (
	"fmt"
	"strings"
)

// Identity holds the profile links shown next to the bio header.
type Identity struct {
	GitHub   string
	LinkedIn string
	Twitter  string
}

// DefaultIdentity returns the profile links the blog was first published with.
func DefaultIdentity() Identity {
	return Identity{
		GitHub:   "https://github.com/Abraxas-365",
		LinkedIn: "https://www.linkedin.com/in/luis-fernando-miranda-castillo-265b22203",
		Twitter:  "#",
	}
}

const socialIconsFormat = `<div class="flex space-x-3 mb-6 md:mb-0 md:mt-8">
                        <a href="%s" target="_blank" class="text-gruvbox-blue hover:text-gruvbox-aqua">
                            <svg xmlns="http://www.w3.org/2000/svg" width="24" height="24" viewBox="0 0 24 24" fill="none"
                                stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round"
                                class="lucide lucide-github">
                                <path
                                    d="M15 22v-4a4.8 4.8 0 0 0-1-3.5c3 0 6-2 6-5.5.08-1.25-.27-2.48-1-3.5.28-1.15.28-2.35 0-3.5 0 0-1 0-3 1.5-2.64-.5-5.36-.5-8 0C6 2 5 2 5 2c-.3 1.15-.3 2.35 0 3.5A5.403 5.403 0 0 0 4 9c0 3.5 3 5.5 6 5.5-.39.49-.68 1.05-.85 1.65-.17.6-.22 1.23-.15 1.85v4">
                                </path>
                                <path d="M9 18c-4.51 2-5-2-7-2"></path>
                            </svg>
                        </a>
                        <a href="%s" target="_blank" class="text-gruvbox-blue hover:text-gruvbox-aqua">
                            <svg xmlns="http://www.w3.org/2000/svg" width="24" height="24" viewBox="0 0 24 24" fill="none"
                                stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round"
                                class="lucide lucide-linkedin">
                                <path d="M16 8a6 6 0 0 1 6 6v7h-4v-7a2 2 0 0 0-2-2 2 2 0 0 0-2 2v7h-4v-7a6 6 0 0 1 6-6z"></path>
                                <rect width="4" height="12" x="2" y="9"></rect>
                                <circle cx="4" cy="4" r="2"></circle>
                            </svg>
                        </a>
                        <a href="%s" class="text-gruvbox-blue hover:text-gruvbox-aqua">
                            <svg xmlns="http://www.w3.org/2000/svg" width="24" height="24" viewBox="0 0 24 24" fill="none"
                                stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round"
                                class="lucide lucide-twitter">
                                <path
                                    d="M22 4s-.7 2.1-2 3.4c1.6 10-9.4 17.3-18 11.6 2.2.1 4.4-.6 6-2C3 15.5.5 9.6 3 5c2.2 2.6 5.6 4.1 9 4-.9-4.2 4-6.6 7-3.8 1.1 0 3-1.2 3-1.2z">
                                </path>
                            </svg>
                        </a>
                    </div>`

// writeBioHeader renders the page title next to the profile icons.
func writeBioHeader(out *strings.Builder, title string, id Identity) {
	out.WriteString(`<div class="flex flex-col md:flex-row justify-between items-start md:items-center">` + "\n")
	fmt.Fprintf(out, `<h1 class="text-2xl text-gruvbox-yellow font-normal mt-8 mb-6 relative">%s</h1>`+"\n", title)
	fmt.Fprintf(out, socialIconsFormat, id.GitHub, id.LinkedIn, id.Twitter)
	out.WriteString("</div>\n")
}

func headingSize(level int) string {
	switch level {
	case 1:
		return "2xl"
	case 2:
		return "xl"
	case 3:
		return "lg"
	default:
		return "base"
	}
}
