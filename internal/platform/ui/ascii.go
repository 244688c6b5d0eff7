// internal/platform/ui/ascii.go
package ui

// BannerCompact es el header de `reconflow scan` en terminales interactivas.
const BannerCompact = `
 ┏━┓┏━╸┏━╸┏━┓┏┓╻┏━╸╻  ┏━┓╻ ╻
 ┣┳┛┣╸ ┃  ┃ ┃┃┗┫┣╸ ┃  ┃ ┃┃╻┃
 ╹┗╸┗━╸┗━╸┗━┛╹ ╹╹  ┗━╸┗━┛┗┻┛
   recon orchestration engine
`
